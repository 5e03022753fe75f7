// Package teleconfig loads process configuration from .env + environment
// variables, adapted from internal/infra/config: godotenv.Load, named
// default constants, int/duration/list sanitizers that accumulate
// non-fatal warnings, and a sync.RWMutex-guarded singleton. Covers spec.md
// §6's Configuration Surface.
package teleconfig

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Env is the process-wide configuration surface (spec.md §6).
type Env struct {
	BotToken        string
	MaxStorageSize  int
	BaseStateLifetime time.Duration
	AllowedUpdates  []string
	APIBaseURL      string
	APIFileBaseURL  string
	HTTPTimeout     time.Duration
	LogLevel        string
}

const (
	defaultMaxStorageSize    = 10000
	defaultBaseStateLifetime = 10 * time.Minute
	defaultAPIBaseURL        = "https://api.telegram.org"
	defaultAPIFileBaseURL    = "https://api.telegram.org/file"
	defaultHTTPTimeout       = 30 * time.Second
	defaultLogLevel          = "info"
)

// Config holds the loaded Env plus any accumulated warnings, guarded by a
// RWMutex so concurrent readers (poller, transport, admin console) never
// race a reload.
type Config struct {
	mu       sync.RWMutex
	env      Env
	warnings []string
}

var (
	instance *Config
	loaded   bool
	loadMu   sync.Mutex
)

// Load reads envPath (a .env file; missing is not an error, mirroring
// godotenv's "file is optional" convention for production deploys that
// configure purely via real environment variables) and populates the
// process-wide singleton. Calling Load twice returns an error, mirroring
// internal/infra/config's "config already loaded" guard against startup
// races.
func Load(envPath string) error {
	loadMu.Lock()
	defer loadMu.Unlock()
	if loaded {
		return errors.New("teleconfig: already loaded")
	}

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, "load .env")
		}
	}

	cfg, err := build()
	if err != nil {
		return err
	}
	instance = cfg
	loaded = true
	return nil
}

func build() (*Config, error) {
	var warnings []string

	token := strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if token == "" {
		return nil, errors.New("env BOT_TOKEN must be set")
	}

	env := Env{
		BotToken:          token,
		MaxStorageSize:    parseIntDefault("MAX_STORAGE_SIZE", defaultMaxStorageSize, &warnings),
		BaseStateLifetime: parseDurationDefault("BASE_STATE_LIFETIME_SEC", defaultBaseStateLifetime, &warnings),
		AllowedUpdates:    parseListDefault("ALLOWED_UPDATES"),
		APIBaseURL:        sanitizeOrDefault("API_BASE_URL", defaultAPIBaseURL),
		APIFileBaseURL:    sanitizeOrDefault("API_FILE_BASE_URL", defaultAPIFileBaseURL),
		HTTPTimeout:       parseDurationDefault("HTTP_TIMEOUT_SEC", defaultHTTPTimeout, &warnings),
		LogLevel:          sanitizeOrDefault("LOG_LEVEL", defaultLogLevel),
	}

	return &Config{env: env, warnings: warnings}, nil
}

func parseIntDefault(key string, fallback int, warnings *[]string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		*warnings = append(*warnings, "env "+key+" invalid, using default "+strconv.Itoa(fallback))
		return fallback
	}
	return v
}

func parseDurationDefault(key string, fallback time.Duration, warnings *[]string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		*warnings = append(*warnings, "env "+key+" invalid, using default "+fallback.String())
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func parseListDefault(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sanitizeOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Get returns the loaded Env. Panics if Load has not succeeded — callers
// are expected to Load once at process startup before touching config.
func Get() Env {
	if instance == nil {
		panic("teleconfig: Get called before Load")
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return instance.env
}

// Warnings returns non-fatal issues accumulated while loading.
func Warnings() []string {
	if instance == nil {
		return nil
	}
	instance.mu.RLock()
	defer instance.mu.RUnlock()
	return append([]string(nil), instance.warnings...)
}
