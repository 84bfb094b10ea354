package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Cfg struct {
	Telegram   Telegram
	Database   Database
	Logger     Logger
	Browser    Browser
	Migrations Migrations
}

type Telegram struct {
	Token string
}

type Database struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
}

type Browser struct {
	// ExecutablePath проверяется первым; если указан, но файла нет —
	// браузерная подсистема сразу отдает ошибку, без поиска по системе.
	ExecutablePath  string
	Headless        bool
	NavigateTimeout time.Duration
	WidgetTimeout   time.Duration
	SettleDelay     time.Duration
	OutputTimeout   time.Duration
	OutputInterval  time.Duration
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		Telegram: Telegram{
			Token: os.Getenv("BOT_TOKEN"),
		},
		Database: Database{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		Browser: Browser{
			ExecutablePath:  env("BROWSER_EXECUTABLE_PATH", ""),
			Headless:        envBoolDefault("BROWSER_HEADLESS", true),
			NavigateTimeout: envDuration("BROWSER_NAVIGATE_TIMEOUT", 60*time.Second),
			WidgetTimeout:   envDuration("BROWSER_WIDGET_TIMEOUT", 10*time.Second),
			SettleDelay:     envDuration("BROWSER_SETTLE_DELAY", 1200*time.Millisecond),
			OutputTimeout:   envDuration("BROWSER_OUTPUT_TIMEOUT", 15*time.Second),
			OutputInterval:  envDuration("BROWSER_OUTPUT_INTERVAL", 500*time.Millisecond),
		},
		Migrations: Migrations{
			Path: env("MIGRATIONS_PATH", "file://migrations"),
		},
	}

	return cfg, nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func envBoolDefault(key string, defaultValue bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	return v == "true" || v == "1" || v == "yes"
}
