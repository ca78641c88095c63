package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env            string `env:"ENVIRONMENT"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"pricetracker.sqlite"`

	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"15"`
	}

	Checker struct {
		IntervalMinutes      int `env:"CHECK_INTERVAL_MINUTES" envDefault:"30"`
		BlockedCooldownHours int `env:"BLOCKED_COOLDOWN_HOURS" envDefault:"24"`
		PacingMinMillis      int `env:"PACING_MIN_MILLIS" envDefault:"2000"`
		PacingMaxMillis      int `env:"PACING_MAX_MILLIS" envDefault:"5000"`
		SearchBatchSize      int `env:"SEARCH_BATCH_SIZE" envDefault:"10"`
	}

	Fetcher struct {
		MaxAttempts     int `env:"FETCH_MAX_ATTEMPTS" envDefault:"3"`
		TimeoutSecs     int `env:"FETCH_TIMEOUT_SECS" envDefault:"25"`
		JitterMinMillis int `env:"FETCH_JITTER_MIN_MILLIS" envDefault:"1000"`
		JitterMaxMillis int `env:"FETCH_JITTER_MAX_MILLIS" envDefault:"4000"`
	}

	Search struct {
		MaxPages int `env:"SEARCH_MAX_PAGES" envDefault:"8"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		log.Sugar().Panic(err)
	}

	creds, err := cfg.parseCreds()
	if err != nil {
		if cfg.Env != "production" {
			cfg.log.Sugar().Infof("%s (credentials will be set to default in development env)", err)
			creds = map[string]string{"admin": "password"}
		} else {
			cfg.log.Sugar().Panic(err)
		}
	}
	cfg.creds = creds

	return cfg
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) MailgunConfigured() bool {
	return cfg.Mailgun.Domain != "" && cfg.Mailgun.APIKey != "" && cfg.Mailgun.SenderFrom != ""
}

func (cfg *Config) CheckInterval() time.Duration {
	return time.Duration(cfg.Checker.IntervalMinutes) * time.Minute
}

func (cfg *Config) BlockedCooldown() time.Duration {
	return time.Duration(cfg.Checker.BlockedCooldownHours) * time.Hour
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, errors.New("BASIC_AUTH_CREDS envvar must be populated")
	}

	creds := strings.Split(cfg.BasicAuthCreds, ",")
	if len(creds) == 0 {
		return nil, errors.New("BASIC_AUTH_CREDS envvar should be filled with comma-separated values -- user1:pass1,user2:pass2")
	}

	result := make(map[string]string)
	for _, cred := range creds {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
