// Package config reads receiptprint settings from the environment.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"receiptprint/internal/dispatch"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Error names the offending key.
type Error struct {
	Key string
	Msg string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig, e.Key, e.Msg)
}

func (e *Error) Unwrap() error { return ErrInvalidConfig }

func invalidf(key, format string, args ...any) error {
	return &Error{Key: key, Msg: fmt.Sprintf(format, args...)}
}

const (
	DefaultStrategy       = dispatch.StrategyShell
	DefaultShell          = "bash"
	DefaultCommand        = "print print"
	DefaultInterpreter    = "node"
	DefaultScript         = "scripts/print.js"
	DefaultTimeout        = 30 * time.Second
	DefaultAddr           = "127.0.0.1:7474"
	DefaultAllowedOrigins = "http://localhost:1420,http://tauri.localhost"
	DefaultJournalSize    = 100
)

type Config struct {
	Strategy    string
	Shell       string
	Command     string
	Interpreter string
	Script      string

	// Timeout of zero disables the per-dispatch deadline.
	Timeout time.Duration

	Debug bool

	// JournalDir enables the on-disk journal when non-empty.
	JournalDir  string
	JournalSize int

	Addr           string
	AllowedOrigins []string
}

// Target is the dispatch target this configuration selects.
func (c Config) Target() dispatch.Target {
	return dispatch.Target{
		Strategy:    c.Strategy,
		Shell:       c.Shell,
		Command:     c.Command,
		Interpreter: c.Interpreter,
		Script:      c.Script,
	}
}

// LoadEnv reads .env (outside production) and then the process environment.
func LoadEnv() (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
	return Load(os.LookupEnv)
}

// Load builds a Config from lookup, applying defaults for unset keys.
func Load(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Strategy:    strings.ToLower(get("PRINT_STRATEGY", DefaultStrategy)),
		Shell:       get("PRINT_SHELL", DefaultShell),
		Command:     get("PRINT_COMMAND", DefaultCommand),
		Interpreter: get("PRINT_INTERPRETER", DefaultInterpreter),
		Script:      get("PRINT_SCRIPT", DefaultScript),
		JournalDir:  get("PRINT_JOURNAL_DIR", ""),
		Addr:        get("HTTP_ADDR", DefaultAddr),
	}

	switch cfg.Strategy {
	case dispatch.StrategyShell, dispatch.StrategyScript:
	default:
		return Config{}, invalidf("PRINT_STRATEGY", "%q (expected %s|%s)", cfg.Strategy, dispatch.StrategyShell, dispatch.StrategyScript)
	}

	timeout, err := ParseTimeout(get("PRINT_TIMEOUT", DefaultTimeout.String()))
	if err != nil {
		return Config{}, invalidf("PRINT_TIMEOUT", "%v", err)
	}
	cfg.Timeout = timeout

	if raw := get("PRINT_DEBUG", ""); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, invalidf("PRINT_DEBUG", "%q is not a boolean", raw)
		}
		cfg.Debug = b
	}

	size, err := strconv.Atoi(get("PRINT_JOURNAL_SIZE", strconv.Itoa(DefaultJournalSize)))
	if err != nil || size <= 0 {
		return Config{}, invalidf("PRINT_JOURNAL_SIZE", "must be a positive integer")
	}
	cfg.JournalSize = size

	for _, o := range strings.Split(get("PRINT_ALLOWED_ORIGINS", DefaultAllowedOrigins), ",") {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return Config{}, invalidf("PRINT_ALLOWED_ORIGINS", "%q must start with http:// or https://", o)
		}
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
	}

	return cfg, nil
}

// ParseTimeout accepts a Go duration or a bare number of seconds. "0"
// disables the timeout; negative values are rejected.
func ParseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty duration")
	}
	var d time.Duration
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%q is negative", raw)
		}
		if secs > math.MaxInt64/int64(time.Second) {
			return 0, fmt.Errorf("%q seconds is too large", raw)
		}
		d = time.Duration(secs) * time.Second
	} else {
		d, err = time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("%q is not a duration", raw)
		}
	}
	if d < 0 {
		return 0, fmt.Errorf("%q is negative", raw)
	}
	return d, nil
}
