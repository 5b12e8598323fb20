package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const minSecretLength = 32

type Config struct {
	DBDriver       string
	DatabaseURL    string
	SQLitePath     string
	Postgres       Postgres
	ServerPort     string
	JWTSecret      string
	CSRFKey        string
	AllowedOrigins []string
	LogLevel       string
	SecureCookies  bool
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

// Load reads .env files if present and then the process environment.
// A missing .env file is not an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		DBDriver:    getenv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getenv("SQLITE_PATH", "forum.db"),
		Postgres: Postgres{
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     os.Getenv("POSTGRES_PORT"),
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DB:       os.Getenv("POSTGRES_DB"),
		},
		ServerPort:     getenv("SERVER_PORT", "8000"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		CSRFKey:        os.Getenv("CSRF_KEY"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		SecureCookies:  os.Getenv("SECURE_COOKIES") == "true",
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting the server needs.
func (c *Config) Validate() error {
	errs := c.databaseErrors()
	if len(c.JWTSecret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength))
	}
	return errors.Join(errs...)
}

// ValidateDatabase checks only the settings needed to open the database,
// for commands that never issue tokens.
func (c *Config) ValidateDatabase() error {
	return errors.Join(c.databaseErrors()...)
}

func (c *Config) databaseErrors() []error {
	var errs []error
	switch c.DBDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			for name, v := range map[string]string{
				"POSTGRES_HOST": c.Postgres.Host, "POSTGRES_PORT": c.Postgres.Port,
				"POSTGRES_USER": c.Postgres.User, "POSTGRES_DB": c.Postgres.DB,
			} {
				if v == "" {
					errs = append(errs, fmt.Errorf("environment variable %s must be set", name))
				}
			}
		}
	case "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	return errs
}

// CSRFSecret returns the key for form tokens, falling back to JWT_SECRET
// when CSRF_KEY is unset.
func (c *Config) CSRFSecret() []byte {
	if c.CSRFKey != "" {
		return []byte(c.CSRFKey)
	}
	return []byte(c.JWTSecret)
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBDriver == "sqlite3" {
		return "file:" + c.SQLitePath + "?_foreign_keys=on"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Postgres.Host, c.Postgres.User, c.Postgres.Password, c.Postgres.DB, c.Postgres.Port)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
