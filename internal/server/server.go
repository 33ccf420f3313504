// Package server exposes the Telegram webhook over HTTP.
package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBody caps webhook payloads; Telegram updates are a few KB.
const maxBody = 1 << 20

// Dispatcher handles one decoded update.
type Dispatcher interface {
	HandleUpdate(upd tgbotapi.Update)
}

type Server struct {
	dispatcher     Dispatcher
	webhookPath    string
	metricsEnabled bool
}

func New(d Dispatcher, webhookPath string) *Server {
	if webhookPath == "" {
		webhookPath = "/api/webhook"
	}
	return &Server{dispatcher: d, webhookPath: webhookPath}
}

// EnableMetrics mounts /metrics.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// chi answers other methods with 405 and the route's own Allow header
	r.Post(s.webhookPath, s.handleWebhook)

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

// handleWebhook answers 200 for anything it could read, so Telegram never
// retries a payload the bot chose to ignore.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		log.Printf("webhook: read body: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	var upd tgbotapi.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		log.Printf("webhook %s: malformed update: %v", middleware.GetReqID(r.Context()), err)
	} else {
		s.dispatcher.HandleUpdate(upd)
	}

	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
