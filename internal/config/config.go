package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config carries every tunable the server reads at boot. Values come from
// config.yaml when present, overridden by SOCIAL_-prefixed environment
// variables (SOCIAL_DATABASE_HOST, SOCIAL_REDIS_ADDR, ...).
type Config struct {
	Server struct {
		Addr           string
		AllowedOrigins string
	}

	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
	}

	JWT struct {
		Secret string
	}

	Email struct {
		SMTPHost     string
		SMTPPort     int
		SMTPUsername string
		SMTPPassword string
		AppURL       string
		FromEmail    string
	}

	Reactions struct {
		// MaxDistinctEmoji caps how many different emoji one subject can
		// accumulate before new distinct emoji are rejected.
		MaxDistinctEmoji int
	}
}

// DSN renders the PostgreSQL connection string for gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.Name, c.Database.SSLMode,
	)
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()
	configureDefaults(v)
	configureEnv(v)
	configureLocation(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env and defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	return c, nil
}

func configureDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allowedorigins", "http://localhost:3000")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "social")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("email.smtphost", "localhost")
	v.SetDefault("email.smtpport", 1025)
	v.SetDefault("email.smtpusername", "")
	v.SetDefault("email.smtppassword", "")
	v.SetDefault("email.appurl", "http://localhost:3000")
	v.SetDefault("email.fromemail", "no-reply@lotbajar.dev")
	v.SetDefault("reactions.maxdistinctemoji", 10)
}

func configureEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("social")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func configureLocation(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
}
