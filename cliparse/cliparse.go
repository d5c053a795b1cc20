package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMemory   = "memory"
)

type Config struct {
	Port           int
	DatabaseURL    string
	DatabaseType   string
	RedisURL       string
	IdentitySalt   string
	TrustProxy     bool
	AllowedOrigins []string
	LogLevel       string
	LogFormat      string
}

// ParseFlags reads CLI flags, falling back to environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win over it.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var origins string
	var trustProxy string

	_ = godotenv.Load()

	fs := flag.NewFlagSet("livepoll", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or memory)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for cross-instance vote updates")
	fs.StringVar(&origins, "origins", "", "Comma separated CORS origins (default: any)")
	fs.StringVar(&trustProxy, "trust-proxy", "", "Trust X-Forwarded-For / X-Real-IP (true/false)")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", "", "Log format (text or json)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.IdentitySalt, "identity-salt", "", "Voter identity salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 5000 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	switch cfg.DatabaseType {
	case DatabaseSQLite, DatabasePostgres, DatabaseMemory:
	default:
		return Config{}, errors.New("database type must be sqlite, postgres or memory")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" && cfg.DatabaseType != DatabaseMemory {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}
	cfg.AllowedOrigins = splitList(origins)

	if trustProxy == "" {
		trustProxy = os.Getenv("TRUST_PROXY")
	}
	if trustProxy != "" {
		v, err := strconv.ParseBool(trustProxy)
		if err != nil {
			return Config{}, errors.New("invalid TRUST_PROXY value")
		}
		cfg.TrustProxy = v
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = os.Getenv("LOG_FORMAT")
	}
	switch cfg.LogFormat = strings.ToLower(cfg.LogFormat); cfg.LogFormat {
	case "":
		cfg.LogFormat = LogFormatText
	case LogFormatText, LogFormatJSON:
	default:
		return Config{}, errors.New("log format must be text or json")
	}

	// Secrets - MUST be provided
	if cfg.IdentitySalt == "" {
		cfg.IdentitySalt = os.Getenv("IDENTITY_SALT")
	}
	if cfg.IdentitySalt == "" {
		return Config{}, errors.New("IDENTITY_SALT required")
	}

	return cfg, nil
}

// ParseLogLevel accepts the slog level names (debug, info, warn, error),
// optionally with an offset such as "debug+2".
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
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
