package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"telegram-tip-tracker/internal/clock"
	"telegram-tip-tracker/internal/gateway"
	"telegram-tip-tracker/internal/messages"
	"telegram-tip-tracker/internal/storage"
)

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookSetCmd)

	historyCmd.Flags().Int64("chat", 0, "Chat id")
	historyCmd.Flags().Int("days", 7, "How many days back to list")
	_ = historyCmd.MarkFlagRequired("chat")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show user activity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := storage.New(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		s, err := db.GetAggregateStats(time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), messages.Stats(s))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a chat's tip history, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		chatID, _ := cmd.Flags().GetInt64("chat")
		days, _ := cmd.Flags().GetInt("days")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := clock.New(nil, cfg.Schedule.Timezone)
		if err != nil {
			return err
		}
		db, err := storage.New(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		recs, err := db.GetHistory(chatID, c.DaysAgo(days))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), messages.History(recs))
		return nil
	},
}

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set URL",
	Short: "Point Telegram at URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		gw, err := gateway.New(cfg.Telegram.Token, cfg.Telegram.APIEndpoint)
		if err != nil {
			return err
		}
		if err := gw.SetWebhook(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", args[0])
		return nil
	},
}
