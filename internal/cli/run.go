package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"receiptprint/internal/config"
	"receiptprint/internal/server"
)

// IO is the process's standard streams.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type CLIResult struct {
	ExitCode int
}

// Run is a high-level CLI entrypoint suitable for black-box tests.
// It accepts the argument slice (excluding argv[0]) and returns the semantic
// exit code plus any error.
func Run(ctx context.Context, args []string, cfg config.Config, stdio IO) (CLIResult, error) {
	inv, err := ParseInvocation(args)
	if err != nil {
		return CLIResult{ExitCode: ExitCode(err)}, err
	}
	return Execute(ctx, inv, cfg, stdio)
}

// Execute runs a parsed invocation against cfg. Dispatch failures come back
// as a *dispatch.Error with ExitDispatchFailure; nothing is written to Stderr
// except log records.
func Execute(ctx context.Context, inv CLIInvocation, cfg config.Config, stdio IO) (CLIResult, error) {
	if inv.Strategy != "" {
		cfg.Strategy = inv.Strategy
	}
	if inv.TimeoutSet {
		cfg.Timeout = inv.Timeout
	}
	if inv.Addr != "" {
		cfg.Addr = inv.Addr
	}

	app, err := Build(cfg, stdio.Stderr)
	if err != nil {
		return CLIResult{ExitCode: ExitCode(err)}, err
	}

	switch inv.Command {
	case CommandPrint:
		return executePrint(ctx, inv, app, stdio)
	case CommandServe:
		srv := server.New(app.Dispatcher, app.Recorder, cfg.AllowedOrigins)
		srv.Logger = app.Logger
		if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
			return CLIResult{ExitCode: ExitInternalError}, fmt.Errorf("serve: %w", err)
		}
		return CLIResult{ExitCode: ExitSuccess}, nil
	case CommandHistory:
		return executeHistory(inv, app, stdio)
	default:
		err := invalidInvocationf("unknown command %q", inv.Command)
		return CLIResult{ExitCode: ExitCode(err)}, err
	}
}

func executePrint(ctx context.Context, inv CLIInvocation, app *App, stdio IO) (CLIResult, error) {
	text, err := readReceipt(inv, stdio.Stdin)
	if err != nil {
		return CLIResult{ExitCode: ExitCode(err)}, err
	}

	res := app.Dispatcher.Dispatch(ctx, text)
	if !res.OK {
		return CLIResult{ExitCode: ExitDispatchFailure}, res.Err()
	}

	if _, err := io.WriteString(stdio.Stdout, res.Text); err != nil {
		return CLIResult{ExitCode: ExitInternalError}, fmt.Errorf("writing output: %w", err)
	}
	return CLIResult{ExitCode: ExitSuccess}, nil
}

func readReceipt(inv CLIInvocation, stdin io.Reader) (string, error) {
	switch inv.Source {
	case SourceData:
		return inv.ReceiptData, nil
	case SourceFile:
		b, err := os.ReadFile(inv.ReceiptFile)
		if err != nil {
			return "", invalidInvocationf("reading --file: %v", err)
		}
		return string(b), nil
	default:
		if stdin == nil {
			return "", invalidInvocationf("no receipt given (use --data, --file or stdin)")
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		// A trailing newline from a pipe or heredoc is not part of the receipt.
		text := string(b)
		if t, ok := strings.CutSuffix(text, "\r\n"); ok {
			return t, nil
		}
		return strings.TrimSuffix(text, "\n"), nil
	}
}

func executeHistory(inv CLIInvocation, app *App, stdio IO) (CLIResult, error) {
	if app.Store == nil {
		err := &config.Error{Key: "PRINT_JOURNAL_DIR", Msg: "not set; no history is kept on disk"}
		return CLIResult{ExitCode: ExitConfigError}, err
	}
	entries, err := app.Store.List()
	if err != nil {
		return CLIResult{ExitCode: ExitInternalError}, fmt.Errorf("reading journal: %w", err)
	}

	enc := json.NewEncoder(stdio.Stdout)
	for _, e := range entries {
		if inv.HistoryJSON {
			if err := enc.Encode(e); err != nil {
				return CLIResult{ExitCode: ExitInternalError}, err
			}
			continue
		}
		status := "ok"
		if !e.OK {
			status = e.Kind
		}
		fmt.Fprintf(stdio.Stdout, "%s  %s  %-8s %-16s %dms\n",
			e.StartedAt.Format("2006-01-02T15:04:05Z"), e.ID, e.Strategy, status, e.DurationMS)
	}
	return CLIResult{ExitCode: ExitSuccess}, nil
}
