package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds every environment driven setting of the service.
type Config struct {
	HTTPAddr    string
	GinMode     string
	CORSOrigins []string // empty allows any origin

	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBTimezone  string
	AutoMigrate bool

	JWTSecret string
	JWTTTL    time.Duration

	LogFile   string
	LogLevel  string
	LogStdout bool
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found – relying on env vars")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_ADDR", "0.0.0.0:8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ORIGINS", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "sabohub")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("JWT_SECRET", "supersecret")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("LOG_FILE", "./logs/app.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_STDOUT", false)

	cfg := Config{
		HTTPAddr:    v.GetString("HTTP_ADDR"),
		GinMode:     v.GetString("GIN_MODE"),
		CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		DBHost:      v.GetString("DB_HOST"),
		DBPort:      v.GetString("DB_PORT"),
		DBUser:      v.GetString("DB_USER"),
		DBPassword:  v.GetString("DB_PASSWORD"),
		DBName:      v.GetString("DB_NAME"),
		DBSSLMode:   v.GetString("DB_SSLMODE"),
		DBTimezone:  v.GetString("DB_TIMEZONE"),
		AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTTTL:      v.GetDuration("JWT_TTL"),
		LogFile:     v.GetString("LOG_FILE"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		LogStdout:   v.GetBool("LOG_STDOUT"),
	}

	if cfg.JWTTTL <= 0 {
		return Config{}, fmt.Errorf("JWT_TTL must be positive, got %q", v.GetString("JWT_TTL"))
	}
	if cfg.JWTSecret == "supersecret" {
		logrus.Warn("JWT_SECRET not set, using the development fallback")
	}
	return cfg, nil
}

// DSN builds the Postgres data source name.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
