package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptprint/internal/dispatch"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(env(nil))
	require.NoError(t, err)

	assert.Equal(t, dispatch.StrategyShell, cfg.Strategy)
	assert.Equal(t, "bash", cfg.Shell)
	assert.Equal(t, "print print", cfg.Command)
	assert.Equal(t, "node", cfg.Interpreter)
	assert.Equal(t, "scripts/print.js", cfg.Script)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.False(t, cfg.Debug)
	assert.Empty(t, cfg.JournalDir)
	assert.Equal(t, 100, cfg.JournalSize)
	assert.Equal(t, "127.0.0.1:7474", cfg.Addr)
	assert.Equal(t, []string{"http://localhost:1420", "http://tauri.localhost"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(env(map[string]string{
		"PRINT_STRATEGY":        "SCRIPT",
		"PRINT_INTERPRETER":     "python3",
		"PRINT_SCRIPT":          "/opt/print/print.py",
		"PRINT_TIMEOUT":         "0",
		"PRINT_DEBUG":           "true",
		"PRINT_JOURNAL_DIR":     "/var/lib/receiptprint",
		"PRINT_JOURNAL_SIZE":    "5",
		"HTTP_ADDR":             ":9000",
		"PRINT_ALLOWED_ORIGINS": " http://a , ,http://b ",
	}))
	require.NoError(t, err)

	assert.Equal(t, dispatch.StrategyScript, cfg.Strategy)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5, cfg.JournalSize)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)

	target := cfg.Target()
	assert.Equal(t, "python3", target.Interpreter)
	assert.Equal(t, "/opt/print/print.py", target.Script)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"PRINT_STRATEGY":        {"PRINT_STRATEGY": "lpr"},
		"PRINT_TIMEOUT":         {"PRINT_TIMEOUT": "-5s"},
		"PRINT_DEBUG":           {"PRINT_DEBUG": "maybe"},
		"PRINT_JOURNAL_SIZE":    {"PRINT_JOURNAL_SIZE": "0"},
		"PRINT_ALLOWED_ORIGINS": {"PRINT_ALLOWED_ORIGINS": "tauri://localhost"},
	}
	for key, vars := range cases {
		_, err := Load(env(vars))
		var cfgErr *Error
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected *Error, got %v", key, err)
		}
		if cfgErr.Key != key {
			t.Errorf("error names %s, want %s", cfgErr.Key, key)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: error does not wrap ErrInvalidConfig", key)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	for raw, want := range map[string]time.Duration{
		"0":     0,
		"15":    15 * time.Second,
		"1m30s": 90 * time.Second,
		"250ms": 250 * time.Millisecond,
		// Largest whole-second count a Duration can hold.
		"9223372036": 9223372036 * time.Second,
	} {
		got, err := ParseTimeout(raw)
		if err != nil {
			t.Fatalf("ParseTimeout(%q): %v", raw, err)
		}
		if got != want {
			t.Errorf("ParseTimeout(%q) = %s, want %s", raw, got, want)
		}
	}
	for _, raw := range []string{"", "soon", "-1", "9223372037", "-99999999999", "99999999999999999999"} {
		if _, err := ParseTimeout(raw); err == nil {
			t.Errorf("ParseTimeout(%q) should fail", raw)
		}
	}
}
