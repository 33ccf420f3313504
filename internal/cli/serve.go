package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"telegram-tip-tracker/internal/clock"
	"telegram-tip-tracker/internal/config"
	"telegram-tip-tracker/internal/gateway"
	"telegram-tip-tracker/internal/handlers"
	"telegram-tip-tracker/internal/reset"
	"telegram-tip-tracker/internal/scheduler"
	"telegram-tip-tracker/internal/server"
	"telegram-tip-tracker/internal/session"
	"telegram-tip-tracker/internal/storage"
	"telegram-tip-tracker/internal/tracker"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("poll", false, "Use long polling instead of the webhook server")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot",
	Long: `Run the bot. By default it serves the Telegram webhook over HTTP; with
--poll it deletes the webhook and pulls updates with long polling.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	poll, _ := cmd.Flags().GetBool("poll")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	if poll {
		if err := app.gw.DeleteWebhook(); err != nil {
			return err
		}
		log.Println("polling for updates")
		app.gw.Poll(ctx, app.handler.HandleUpdate)
		return nil
	}
	return serveHTTP(ctx, cfg, app)
}

type app struct {
	db      *storage.DB
	gw      *gateway.Gateway
	sched   *scheduler.Scheduler
	handler *handlers.Handler
}

func newApp(cfg config.Config) (*app, error) {
	c, err := clock.New(nil, cfg.Schedule.Timezone)
	if err != nil {
		return nil, err
	}
	errDelay, confirm, summary, err := cfg.Ephemeral.Durations()
	if err != nil {
		return nil, err
	}

	db, err := storage.New(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(cfg.Telegram.Token, cfg.Telegram.APIEndpoint)
	if err != nil {
		db.Close()
		return nil, err
	}
	sched, err := scheduler.New(c, gw)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := sched.PruneDaily(db, cfg.Storage.RetentionDays); err != nil {
		log.Printf("history pruning disabled: %v", err)
	}

	policy := reset.New(c, cfg.Schedule.CutoffHour, cfg.Schedule.CutoffMinute)
	h := &handlers.Handler{
		Bot:     gw,
		Tracker: tracker.New(db, c, policy, session.NewModes()),
		Users:   db,
		Queue:   sched,
		Menus:   session.NewMenuRefs(),
		Now:     c.Now,
		Delays:  handlers.Delays{Error: errDelay, Confirm: confirm, Summary: summary},
	}
	log.Printf("daily reset at %02d:%02d %s", cfg.Schedule.CutoffHour, cfg.Schedule.CutoffMinute, c.Location())
	return &app{db: db, gw: gw, sched: sched, handler: h}, nil
}

func (a *app) close() {
	if err := a.sched.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
	a.db.Close()
}

func serveHTTP(ctx context.Context, cfg config.Config, a *app) error {
	s := server.New(a.handler, cfg.Server.WebhookPath)
	if cfg.Server.Metrics {
		s.EnableMetrics()
	}
	if cfg.Telegram.WebhookURL != "" {
		if err := a.gw.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
			log.Printf("webhook not registered: %v", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (webhook %s)", cfg.Server.Listen, cfg.Server.WebhookPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
