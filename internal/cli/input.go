package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"receiptprint/internal/config"
	"receiptprint/internal/dispatch"
)

const (
	ExitSuccess           = 0
	ExitDispatchFailure   = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

type Command string

const (
	CommandPrint   Command = "print"
	CommandServe   Command = "serve"
	CommandHistory Command = "history"
)

// ReceiptSource says where the print command reads its receipt text from.
type ReceiptSource string

const (
	SourceStdin ReceiptSource = "stdin"
	SourceData  ReceiptSource = "data"
	SourceFile  ReceiptSource = "file"
)

// CLIInvocation is the parsed form of the command line. Overrides left empty
// fall back to the environment configuration.
type CLIInvocation struct {
	Command Command

	Source      ReceiptSource
	ReceiptData string
	ReceiptFile string

	Strategy    string
	Timeout     time.Duration
	TimeoutSet  bool
	Addr        string
	HistoryJSON bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

const usage = "usage: receiptprint print [--data TEXT | --file PATH] [--strategy shell|script] [--timeout DUR]\n" +
	"       receiptprint serve [--addr ADDR]\n" +
	"       receiptprint history [--json]"

// ParseInvocation parses args (excluding argv[0]). It does not read the
// environment or any files.
func ParseInvocation(args []string) (CLIInvocation, error) {
	if len(args) == 0 {
		return CLIInvocation{}, invalidInvocationf("missing command\n%s", usage)
	}

	cmd := Command(args[0])
	fs := flag.NewFlagSet("receiptprint "+args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	inv := CLIInvocation{Command: cmd}
	var timeout string
	var hasData bool

	switch cmd {
	case CommandPrint:
		fs.Func("data", "Receipt text to print.", func(v string) error {
			inv.ReceiptData = v
			hasData = true
			return nil
		})
		fs.StringVar(&inv.ReceiptFile, "file", "", "Read the receipt text from this file.")
		fs.StringVar(&inv.Strategy, "strategy", "", "Override PRINT_STRATEGY: shell|script")
		fs.StringVar(&timeout, "timeout", "", "Override PRINT_TIMEOUT, e.g. 10s; 0 disables.")
	case CommandServe:
		fs.StringVar(&inv.Addr, "addr", "", "Override HTTP_ADDR.")
	case CommandHistory:
		fs.BoolVar(&inv.HistoryJSON, "json", false, "Print entries as JSON lines.")
	default:
		return CLIInvocation{}, invalidInvocationf("unknown command %q\n%s", args[0], usage)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return CLIInvocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return CLIInvocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}

	if cmd != CommandPrint {
		return inv, nil
	}

	switch {
	case hasData && inv.ReceiptFile != "":
		return CLIInvocation{}, invalidInvocationf("--data and --file are mutually exclusive")
	case hasData:
		inv.Source = SourceData
	case inv.ReceiptFile != "":
		inv.Source = SourceFile
		inv.ReceiptFile = filepath.Clean(inv.ReceiptFile)
	default:
		inv.Source = SourceStdin
	}

	if inv.Strategy != "" {
		s := strings.ToLower(strings.TrimSpace(inv.Strategy))
		if s != dispatch.StrategyShell && s != dispatch.StrategyScript {
			return CLIInvocation{}, invalidInvocationf("invalid --strategy %q (expected %s|%s)", inv.Strategy, dispatch.StrategyShell, dispatch.StrategyScript)
		}
		inv.Strategy = s
	}

	if timeout != "" {
		d, err := config.ParseTimeout(timeout)
		if err != nil {
			return CLIInvocation{}, invalidInvocationf("invalid --timeout: %v", err)
		}
		inv.Timeout = d
		inv.TimeoutSet = true
	}

	return inv, nil
}

// ExitCode extracts a semantic exit code from an error returned by this
// package. Unknown errors map to ExitInternalError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	var dispErr *dispatch.Error
	if errors.As(err, &dispErr) {
		return ExitDispatchFailure
	}
	return ExitInternalError
}
