package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	Storage struct {
		Driver string
	} `mapstructure:"storage"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	SQLite struct {
		Path string
	} `mapstructure:"sqlite"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`
}

// Load читает YAML и переопределения из ENV (APP_POSTGRES_DSN и т.п.).
// Если рядом есть .env, он подгружается в окружение до чтения.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Local")
	v.SetDefault("storage.driver", DriverPostgres)
	v.SetDefault("sqlite.path", "inventory.db")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	// без BindEnv AutomaticEnv не видит ключи, которых нет в файле
	for _, k := range []string{"postgres.dsn", "telegram.token", "telegram.admin_chat_id"} {
		_ = v.BindEnv(k)
	}

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return errors.New("config: postgres.dsn is required for postgres driver")
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return errors.New("config: sqlite.path is required for sqlite driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location зона для расчёта «сегодня»; пусто или Local = зона процесса.
func (c Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: app.timezone: %w", err)
	}
	return loc, nil
}
