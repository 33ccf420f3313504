package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const secretPath = "/run/secrets/telegram_bot_token"

type Config struct {
	Telegram  TelegramConfig  `toml:"telegram"`
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	Ephemeral EphemeralConfig `toml:"ephemeral"`
}

type TelegramConfig struct {
	Token       string `toml:"token"`
	APIEndpoint string `toml:"api_endpoint"`
	WebhookURL  string `toml:"webhook_url"`
}

type ServerConfig struct {
	Listen      string `toml:"listen"`
	WebhookPath string `toml:"webhook_path"`
	Metrics     bool   `toml:"metrics"`
}

type StorageConfig struct {
	Path          string `toml:"path"`
	RetentionDays int    `toml:"retention_days"` // 0 = keep forever
}

type ScheduleConfig struct {
	Timezone     string `toml:"timezone"`
	CutoffHour   int    `toml:"cutoff_hour"`
	CutoffMinute int    `toml:"cutoff_minute"`
}

// EphemeralConfig holds message lifetimes as duration strings ("2.5s").
type EphemeralConfig struct {
	Error   string `toml:"error"`
	Confirm string `toml:"confirm"`
	Summary string `toml:"summary"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Listen:      ":8080",
			WebhookPath: "/api/webhook",
			Metrics:     true,
		},
		Storage: StorageConfig{
			Path:          "bot_data.db",
			RetentionDays: 365,
		},
		Schedule: ScheduleConfig{
			Timezone:   "Europe/Warsaw",
			CutoffHour: 11,
		},
		Ephemeral: EphemeralConfig{
			Error:   "2.5s",
			Confirm: "1.5s",
			Summary: "9s",
		},
	}
}

// Load reads defaults, then the TOML file at path (if any), then .env and
// the environment. Later sources win.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	_ = godotenv.Load() // .env is optional
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if token := botToken(); token != "" {
		cfg.Telegram.Token = token
	}
	return cfg, nil
}

// botToken prefers the Docker secret over TELEGRAM_BOT_TOKEN.
func botToken() string {
	if data, err := os.ReadFile(secretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	str("TIPBOT_API_ENDPOINT", &cfg.Telegram.APIEndpoint)
	str("TIPBOT_WEBHOOK_URL", &cfg.Telegram.WebhookURL)
	str("TIPBOT_LISTEN", &cfg.Server.Listen)
	str("TIPBOT_WEBHOOK_PATH", &cfg.Server.WebhookPath)
	str("TIPBOT_DB_PATH", &cfg.Storage.Path)
	str("TIPBOT_TIMEZONE", &cfg.Schedule.Timezone)

	ints := []struct {
		key string
		dst *int
	}{
		{"TIPBOT_CUTOFF_HOUR", &cfg.Schedule.CutoffHour},
		{"TIPBOT_CUTOFF_MINUTE", &cfg.Schedule.CutoffMinute},
		{"TIPBOT_RETENTION_DAYS", &cfg.Storage.RetentionDays},
	}
	for _, e := range ints {
		v, ok := os.LookupEnv(e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v, ok := os.LookupEnv("TIPBOT_METRICS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TIPBOT_METRICS: %w", err)
		}
		cfg.Server.Metrics = b
	}
	return nil
}

// Validate checks everything the bot needs to serve.
func (c Config) Validate() error {
	var errs []error
	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram token is not set (docker secret or TELEGRAM_BOT_TOKEN)"))
	}
	if c.Schedule.CutoffHour < 0 || c.Schedule.CutoffHour > 23 {
		errs = append(errs, fmt.Errorf("cutoff_hour %d out of range", c.Schedule.CutoffHour))
	}
	if c.Schedule.CutoffMinute < 0 || c.Schedule.CutoffMinute > 59 {
		errs = append(errs, fmt.Errorf("cutoff_minute %d out of range", c.Schedule.CutoffMinute))
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if _, _, _, err := c.Ephemeral.Durations(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Durations parses the ephemeral lifetimes.
func (e EphemeralConfig) Durations() (errDelay, confirm, summary time.Duration, err error) {
	parse := func(name, s string) time.Duration {
		if err != nil {
			return 0
		}
		var d time.Duration
		d, err = time.ParseDuration(s)
		if err != nil {
			err = fmt.Errorf("ephemeral.%s: %w", name, err)
		}
		return d
	}
	errDelay = parse("error", e.Error)
	confirm = parse("confirm", e.Confirm)
	summary = parse("summary", e.Summary)
	return
}
