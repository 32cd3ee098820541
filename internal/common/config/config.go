package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port    int      `env:"PORT" envDefault:"8080"`
		Origins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	}

	Postgres struct {
		DSN             string        `env:"DATABASE_URL"`
		MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
		AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`

		// Сессии незавершённых диалогов живут ограниченное время
		SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
		LockTTL    time.Duration `env:"SESSION_LOCK_TTL" envDefault:"30s"`
	}

	Telegram struct {
		BotToken       string        `env:"BOT_TOKEN,required,notEmpty"`
		AdminIDs       []string      `env:"ADMIN_IDS" envSeparator:","`
		WebhookURL     string        `env:"WEBHOOK_URL"`
		WebhookSecret  string        `env:"WEBHOOK_SECRET"`
		RequestTimeout time.Duration `env:"TELEGRAM_TIMEOUT" envDefault:"10s"`
		InitDataTTL    time.Duration `env:"INIT_DATA_TTL" envDefault:"24h"`
	}

	Points struct {
		PerReferral       int64 `env:"POINTS_PER_REFERRAL" envDefault:"5"`
		SubscriptionBonus int64 `env:"SUBSCRIPTION_BONUS" envDefault:"5"`
	}

	Gate struct {
		Timeout     time.Duration `env:"GATE_CHECK_TIMEOUT" envDefault:"5s"`
		Concurrency int           `env:"GATE_CHECK_CONCURRENCY" envDefault:"8"`
	}

	Broadcast struct {
		RatePerSecond int           `env:"BROADCAST_RATE_PER_SEC" envDefault:"30"`
		Workers       int           `env:"BROADCAST_WORKERS" envDefault:"8"`
		SendTimeout   time.Duration `env:"BROADCAST_SEND_TIMEOUT" envDefault:"10s"`
	}

	Contest struct {
		Timezone string `env:"CONTEST_TIMEZONE" envDefault:"UTC"`
	}
}

func Load() (*Config, error) {
	// .env необязателен: в production переменные задаются окружением
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.AdminIDList(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AdminIDList parses ADMIN_IDS into Telegram user ids.
func (c *Config) AdminIDList() ([]int64, error) {
	ids := make([]int64, 0, len(c.Telegram.AdminIDs))
	for _, raw := range c.Telegram.AdminIDs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS entry %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Location resolves the timezone admins type contest end dates in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Contest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CONTEST_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) PostgresEnabled() bool {
	return c.Postgres.DSN != ""
}
