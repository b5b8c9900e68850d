package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the sync engine needs to talk to the
// forecast backend and to persist the local session.
type Config struct {
	// BaseURL is the root of the remote forecast service, e.g. http://127.0.0.1:8000.
	BaseURL string
	// RequestTimeout bounds every single HTTP call to the backend.
	RequestTimeout time.Duration
	// RedisURL enables the company profile/graph cache when non-empty.
	RedisURL string
	// SessionFile is where the signed session token is persisted.
	SessionFile string
	// SessionKey signs the persisted session token.
	SessionKey string
	// MetricsPort exposes /metrics when > 0.
	MetricsPort int
	// DefaultHorizon is the prediction horizon (days) used when none is selected.
	DefaultHorizon int
}

// Load reads environment variables and application flags (via a local
// FlagSet), strips out any -test.* flags, and validates required fields.
func Load() (*Config, error) {
	// Build a fresh FlagSet so we don't collide with `go test` flags.
	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	var baseURL, redisURL, sessionFile string
	var metricsPort int
	fs.StringVar(&baseURL, "api", os.Getenv("FORECAST_API_URL"), "Forecast backend base URL")
	fs.StringVar(&redisURL, "redis", os.Getenv("REDIS_URL"), "Redis connection URL (optional cache)")
	fs.StringVar(&sessionFile, "session-file", os.Getenv("SESSION_FILE"), "Path of the persisted session token")
	fs.IntVar(&metricsPort, "metrics-port", 0, "Prometheus metrics port (0 disables)")

	if err := ParseFlags(fs); err != nil {
		return nil, err
	}

	cfg := &Config{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		RequestTimeout: 10 * time.Second,
		RedisURL:       redisURL,
		SessionFile:    sessionFile,
		SessionKey:     os.Getenv("SESSION_KEY"),
		MetricsPort:    metricsPort,
		DefaultHorizon: 1,
	}

	if timeout := os.Getenv("REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT: %v", err)
		}
		cfg.RequestTimeout = d
	}

	if portEnv := os.Getenv("METRICS_PORT"); portEnv != "" {
		port, err := strconv.Atoi(portEnv)
		if err != nil {
			return nil, fmt.Errorf("invalid METRICS_PORT: %v", err)
		}
		cfg.MetricsPort = port
	}

	if horizon := os.Getenv("DEFAULT_HORIZON"); horizon != "" {
		h, err := strconv.Atoi(horizon)
		if err != nil {
			return nil, fmt.Errorf("invalid DEFAULT_HORIZON: %v", err)
		}
		cfg.DefaultHorizon = h
	}

	if cfg.SessionFile == "" {
		cfg.SessionFile = defaultSessionFile()
	}

	// Validate required fields.
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("missing required config: FORECAST_API_URL or -api")
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid backend URL %q: %v", cfg.BaseURL, err)
	}
	switch cfg.DefaultHorizon {
	case 1, 7, 30:
	default:
		return nil, fmt.Errorf("DEFAULT_HORIZON must be 1, 7 or 30, got %d", cfg.DefaultHorizon)
	}

	return cfg, nil
}

// ParseFlags parses the process arguments into fs, ignoring flags the
// set does not define (including -test.* under `go test`). Commands
// layer their own FlagSet on top of the config flags, so each set only
// sees its own arguments. Flags take their value in the same argument
// or the next one; boolean flags must use the -name=true form when a
// positional argument follows.
func ParseFlags(fs *flag.FlagSet) error {
	args := os.Args[1:]
	var own []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		inline := false
		if eq := strings.Index(name, "="); eq >= 0 {
			name = name[:eq]
			inline = true
		}
		hasValue := !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-")
		if fs.Lookup(name) == nil {
			if hasValue {
				i++
			}
			continue
		}
		own = append(own, arg)
		if hasValue {
			own = append(own, args[i+1])
			i++
		}
	}
	return fs.Parse(own)
}

// defaultSessionFile puts the token under the user config dir, falling
// back to the working directory when that cannot be resolved.
func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".marketsync-session"
	}
	return filepath.Join(dir, "marketsync", "session")
}
