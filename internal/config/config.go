package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	SessionSecret     string   `mapstructure:"SESSION_SECRET"`
	SessionTTLMinutes int      `mapstructure:"SESSION_TTL_MINUTES"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	EnableEmail       bool     `mapstructure:"ENABLE_EMAIL"`
	SMTPServer        string   `mapstructure:"SMTP_SERVER"`
	SMTPPort          int      `mapstructure:"SMTP_PORT"`
	SenderEmail       string   `mapstructure:"SENDER_EMAIL"`
	SenderPassword    string   `mapstructure:"SENDER_PASSWORD"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SESSION_TTL_MINUTES", 60)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("ENABLE_EMAIL", false)
	v.SetDefault("SMTP_SERVER", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("SESSION_SECRET")
	v.BindEnv("SESSION_TTL_MINUTES")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("ENABLE_EMAIL")
	v.BindEnv("SMTP_SERVER")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("SENDER_EMAIL")
	v.BindEnv("SENDER_PASSWORD")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() && cfg.SessionSecret == "" {
		log.Println("WARNING: SESSION_SECRET is not set; using an insecure development secret.")
		cfg.SessionSecret = "medtrack-dev-secret"
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development a
// real session secret is required, and enabling email requires SMTP sender
// credentials.
func (c *Config) Validate() error {
	if !c.IsDev() && (c.SessionSecret == "" || c.SessionSecret == "medtrack-dev-secret") {
		return fmt.Errorf("SESSION_SECRET must be set when ENV is %q", c.Env)
	}
	if c.EnableEmail {
		if c.SenderEmail == "" {
			return fmt.Errorf("SENDER_EMAIL is required when ENABLE_EMAIL is true")
		}
		if c.SenderPassword == "" {
			return fmt.Errorf("SENDER_PASSWORD is required when ENABLE_EMAIL is true")
		}
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", c.SessionTTLMinutes)
	}
	return nil
}
