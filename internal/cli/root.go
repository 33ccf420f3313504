// Package cli defines the tipbot command tree.
package cli

import (
	"github.com/spf13/cobra"

	"telegram-tip-tracker/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tipbot",
	Short: "Telegram bot that tracks expected and received amounts and the tip between them",
	Long: `tipbot keeps, per chat, an expected and a received sum and shows their
difference. Sums persist in SQLite, reset every day at a fixed local time,
and each summary is written to the chat's tip history.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
