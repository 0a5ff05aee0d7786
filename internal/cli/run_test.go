package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receiptprint/internal/config"
	"receiptprint/internal/dispatch"
	"receiptprint/internal/journal"
)

// stubConfig points the script strategy at a sh stub that echoes its
// receipt argument back, or fails when the receipt is "jam".
func stubConfig(t *testing.T) config.Config {
	t.Helper()
	script := filepath.Join(t.TempDir(), "print.sh")
	body := `#!/bin/sh
if [ "$2" = jam ]; then
	printf 'paper jam' >&2
	exit 4
fi
printf '%s' "$2"
`
	if err := os.WriteFile(script, []byte(body), 0o644); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	cfg, err := config.Load(func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Strategy = dispatch.StrategyScript
	cfg.Interpreter = "sh"
	cfg.Script = script
	cfg.Timeout = 10 * time.Second
	return cfg
}

func run(t *testing.T, cfg config.Config, stdin string, args ...string) (CLIResult, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	res, err := Run(ctx, args, cfg, IO{Stdin: strings.NewReader(stdin), Stdout: &stdout, Stderr: &stderr})
	return res, stdout.String(), err
}

func TestRun_PrintData(t *testing.T) {
	res, out, err := run(t, stubConfig(t), "", "print", "--data", `{"title":"O'Brien's Cafe"}`)

	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, res.ExitCode)
	assert.Equal(t, `{"title":"O'Brien's Cafe"}`, out)
}

func TestRun_PrintStdinAndFile(t *testing.T) {
	cfg := stubConfig(t)

	_, out, err := run(t, cfg, "{\"from\":\"stdin\"}\n", "print")
	require.NoError(t, err)
	assert.Equal(t, `{"from":"stdin"}`, out)

	file := filepath.Join(t.TempDir(), "receipt.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"from":"file"}`), 0o644))
	_, out, err = run(t, cfg, "", "print", "--file", file)
	require.NoError(t, err)
	assert.Equal(t, `{"from":"file"}`, out)
}

func TestRun_PrintStdinTrimsOnlyLineEndings(t *testing.T) {
	cfg := stubConfig(t)

	for in, want := range map[string]string{
		"{}\r\n": "{}",
		"{}\n":   "{}",
		"{}\r":   "{}\r",
		"{}\n\n": "{}\n",
		"{}":     "{}",
	} {
		_, out, err := run(t, cfg, in, "print")
		require.NoError(t, err)
		assert.Equal(t, want, out, "stdin %q", in)
	}
}

func TestRun_DebugLogging(t *testing.T) {
	for _, debug := range []bool{false, true} {
		cfg := stubConfig(t)
		cfg.Debug = debug

		var stdout, stderr bytes.Buffer
		_, err := Run(context.Background(), []string{"print", "--data", "{}"}, cfg,
			IO{Stdout: &stdout, Stderr: &stderr})
		require.NoError(t, err)

		if debug {
			assert.Contains(t, stderr.String(), "level=DEBUG")
			assert.Contains(t, stderr.String(), "dispatch exited")
		} else {
			assert.Empty(t, stderr.String())
		}
	}
}

func TestRun_PrintMissingFile(t *testing.T) {
	res, _, err := run(t, stubConfig(t), "", "print", "--file", filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Equal(t, ExitInvalidInvocation, res.ExitCode)
}

func TestRun_PrintFailure(t *testing.T) {
	res, out, err := run(t, stubConfig(t), "", "print", "--data", "jam")

	if res.ExitCode != ExitDispatchFailure {
		t.Fatalf("exit code %d, want %d", res.ExitCode, ExitDispatchFailure)
	}
	if !errors.Is(err, dispatch.ErrExternalProcess) {
		t.Fatalf("expected ErrExternalProcess, got %v", err)
	}
	if !strings.Contains(err.Error(), "paper jam") {
		t.Fatalf("stderr not relayed: %v", err)
	}
	if out != "" {
		t.Fatalf("nothing should be written to stdout on failure, got %q", out)
	}
}

func TestRun_SpawnFailureFromOverride(t *testing.T) {
	cfg := stubConfig(t)
	cfg.Interpreter = filepath.Join(t.TempDir(), "missing-interpreter")

	res, _, err := run(t, cfg, "", "print", "--data", "{}")

	assert.Equal(t, ExitDispatchFailure, res.ExitCode)
	assert.True(t, errors.Is(err, dispatch.ErrSpawn), "got %v", err)
}

func TestRun_TimeoutOverride(t *testing.T) {
	cfg := stubConfig(t)
	script := filepath.Join(t.TempDir(), "slow.sh")
	require.NoError(t, os.WriteFile(script, []byte("sleep 30\n"), 0o644))
	cfg.Script = script

	res, _, err := run(t, cfg, "", "print", "--data", "{}", "--timeout", "100ms")

	assert.Equal(t, ExitDispatchFailure, res.ExitCode)
	assert.True(t, errors.Is(err, dispatch.ErrTimeout), "got %v", err)
}

func TestRun_History(t *testing.T) {
	cfg := stubConfig(t)
	cfg.JournalDir = t.TempDir()

	_, _, err := run(t, cfg, "", "print", "--data", "{}")
	require.NoError(t, err)
	_, _, err = run(t, cfg, "", "print", "--data", "jam")
	require.Error(t, err)

	res, out, err := run(t, cfg, "", "history", "--json")
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, res.ExitCode)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var kinds []string
	for _, line := range lines {
		var e journal.Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		assert.Equal(t, dispatch.StrategyScript, e.Strategy)
		kinds = append(kinds, e.Kind)
	}
	assert.ElementsMatch(t, []string{"", "external_process"}, kinds)

	_, out, err = run(t, cfg, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "external_process")
}

func TestRun_HistoryWithoutJournalDir(t *testing.T) {
	res, _, err := run(t, stubConfig(t), "", "history")

	require.Error(t, err)
	assert.Equal(t, ExitConfigError, res.ExitCode)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestRun_ServeStopsWithContext(t *testing.T) {
	cfg := stubConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := Run(ctx, []string{"serve", "--addr", "127.0.0.1:0"}, cfg, IO{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
