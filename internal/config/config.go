package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API      *APIConfig
	Gin      *GinConfig
	Postgres *PostgresConfig
	Booking  *BookingConfig
	Redis    *RedisConfig
	AMQP     *AMQPConfig
	Telegram *TelegramConfig
}

type APIConfig struct {
	Environment            string
	Port                   string
	BaseURL                string        `mapstructure:"base_url"`
	AllowedCORSDomains     []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey          string        `mapstructure:"jwt_signing_key"`
	JWTTTL                 time.Duration `mapstructure:"jwt_ttl"`
	BootstrapAdminEmail    string        `mapstructure:"bootstrap_admin_email"`
	BootstrapAdminPassword string        `mapstructure:"bootstrap_admin_password"`
}

type GinConfig struct {
	Mode string
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string `mapstructure:"sslmode"`
}

// BookingConfig holds the venue rules. Times of day are "HH:MM" strings.
type BookingConfig struct {
	Timezone               string
	NightStart             string        `mapstructure:"night_start"`
	ConfirmationWindow     time.Duration `mapstructure:"confirmation_window"`
	FootballWeekdayOpening string        `mapstructure:"football_weekday_opening"`
	FootballWeekendOpening string        `mapstructure:"football_weekend_opening"`
	FootballLastStart      string        `mapstructure:"football_last_start"`
	RacketFirstStart       string        `mapstructure:"racket_first_start"`
	RacketLastStart        string        `mapstructure:"racket_last_start"`
	SweepInterval          time.Duration `mapstructure:"sweep_interval"`
}

func (c *BookingConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("time.LoadLocation(%q) -> %w", c.Timezone, err)
	}
	return loc, nil
}

type RedisConfig struct {
	Addr              string
	Password          string
	DB                int
	ReservationLimit  int           `mapstructure:"reservation_limit"`
	ReservationWindow time.Duration `mapstructure:"reservation_window"`
}

type AMQPConfig struct {
	URL      string
	Exchange string
}

type TelegramConfig struct {
	Token  string
	ChatID int64 `mapstructure:"chat_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("api.jwt_signing_key", "")
	v.SetDefault("api.jwt_ttl", 12*time.Hour)
	v.SetDefault("api.bootstrap_admin_email", "")
	v.SetDefault("api.bootstrap_admin_password", "")

	v.SetDefault("gin.mode", "debug")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db", "booking")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("booking.timezone", "UTC")
	v.SetDefault("booking.night_start", "19:00")
	v.SetDefault("booking.confirmation_window", 15*time.Minute)
	v.SetDefault("booking.football_weekday_opening", "16:00")
	v.SetDefault("booking.football_weekend_opening", "10:00")
	v.SetDefault("booking.football_last_start", "23:30")
	v.SetDefault("booking.racket_first_start", "09:00")
	v.SetDefault("booking.racket_last_start", "23:00")
	v.SetDefault("booking.sweep_interval", time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.reservation_limit", 5)
	v.SetDefault("redis.reservation_window", time.Hour)

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "booking.exchange")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	// Environment variables win over the file, e.g. POSTGRES_HOST.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("viper.Unmarshal() -> %w", err)
	}

	return conf, nil
}

func Load(path string) (*AppConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("viper.ReadInConfig() -> %w", err)
	}

	return decode(v)
}

// Watch reloads the file on every write and hands the booking section to
// onChange. Invalid edits are logged and ignored.
func Watch(path string, onChange func(*BookingConfig)) error {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("viper.ReadInConfig() -> %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		conf, err := decode(v)
		if err != nil {
			zap.L().Error("failed to reload config", zap.String("file", e.Name), zap.Error(err))
			return
		}

		zap.L().Info("booking config reloaded", zap.String("file", e.Name))
		onChange(conf.Booking)
	})
	v.WatchConfig()

	return nil
}
