package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Dispatcher sends one serialized receipt to an external print program.
//
// receiptText is passed through verbatim; it is never parsed or validated.
type Dispatcher interface {
	Dispatch(ctx context.Context, receiptText string) Result
}

// Options are shared by both strategies.
type Options struct {
	// Timeout bounds each dispatch. Zero means wait for the process however
	// long it takes.
	Timeout time.Duration

	// Dir and Env configure the spawned process; see Executor.
	Dir string
	Env []string

	// Logger receives debug-level records. Nil discards them.
	Logger *slog.Logger
}

// runner is the part both strategies have in common: execute a command line
// and map the process outcome to a Result.
type runner struct {
	exec    *Executor
	timeout time.Duration
	log     *slog.Logger
}

func newRunner(opts Options) runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return runner{
		exec:    &Executor{Dir: opts.Dir, Env: opts.Env},
		timeout: opts.Timeout,
		log:     logger,
	}
}

func (r runner) run(ctx context.Context, name string, args []string) Result {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.log.DebugContext(ctx, "dispatch exec", "name", name, "args", len(args))
	start := time.Now()

	res, err := r.exec.Execute(ctx, name, args...)
	if err != nil {
		r.log.DebugContext(ctx, "dispatch failed", "name", name, "elapsed", time.Since(start).Round(time.Millisecond), "err", err)
		return Failure(asError(err), -1)
	}

	r.log.DebugContext(ctx, "dispatch exited", "name", name, "exit_code", res.ExitCode, "elapsed", time.Since(start).Round(time.Millisecond))
	return interpret(res)
}

// interpret maps a finished process to a Result. stdout is relayed on success,
// stderr on failure; either must be valid UTF-8.
func interpret(res *ExecutionResult) Result {
	if res.ExitCode == 0 {
		if !utf8.Valid(res.Stdout) {
			return Failure(failf(ErrEncoding, "in command output"), res.ExitCode)
		}
		return Success(string(res.Stdout))
	}
	if !utf8.Valid(res.Stderr) {
		return Failure(failf(ErrEncoding, "in error output"), res.ExitCode)
	}
	return Failure(&Error{Kind: ErrExternalProcess, Msg: string(res.Stderr)}, res.ExitCode)
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return failf(ErrSpawn, "%v", err)
}

// DefaultShellFlags make the shell load the user's full environment
// (PATH, aliases, functions) the way a terminal session would.
var DefaultShellFlags = []string{"-l", "-i"}

// ShellPipeline runs "<Command> '<receipt>'" inside Shell.
//
// The spawned shell sources the user's startup files, which may mutate the
// environment or be slow; that is inherent to this strategy.
type ShellPipeline struct {
	Shell      string
	ShellFlags []string
	Command    string

	runner
}

// NewShellPipeline returns a ShellPipeline using DefaultShellFlags.
func NewShellPipeline(shell, command string, opts Options) *ShellPipeline {
	return &ShellPipeline{
		Shell:      shell,
		ShellFlags: append([]string(nil), DefaultShellFlags...),
		Command:    command,
		runner:     newRunner(opts),
	}
}

// CommandLine returns the shell command line for receiptText.
func (p *ShellPipeline) CommandLine(receiptText string) string {
	return fmt.Sprintf("%s %s", p.Command, QuoteSingle(receiptText))
}

func (p *ShellPipeline) args(receiptText string) []string {
	args := make([]string, 0, len(p.ShellFlags)+2)
	args = append(args, p.ShellFlags...)
	return append(args, "-c", p.CommandLine(receiptText))
}

func (p *ShellPipeline) Dispatch(ctx context.Context, receiptText string) Result {
	return p.run(ctx, p.Shell, p.args(receiptText))
}

// DefaultSubcommand is the verb passed to the print tooling.
const DefaultSubcommand = "print"

// DelegateScript runs "<Interpreter> <Script> <Subcommand> <receipt>" with
// no shell in between.
type DelegateScript struct {
	Interpreter string
	Script      string
	Subcommand  string

	runner
}

func NewDelegateScript(interpreter, script string, opts Options) *DelegateScript {
	return &DelegateScript{
		Interpreter: interpreter,
		Script:      script,
		Subcommand:  DefaultSubcommand,
		runner:      newRunner(opts),
	}
}

func (s *DelegateScript) args(receiptText string) []string {
	var args []string
	if strings.TrimSpace(s.Script) != "" {
		args = append(args, s.Script)
	}
	if s.Subcommand != "" {
		args = append(args, s.Subcommand)
	}
	return append(args, receiptText)
}

func (s *DelegateScript) Dispatch(ctx context.Context, receiptText string) Result {
	return s.run(ctx, s.Interpreter, s.args(receiptText))
}

// Strategy names accepted by New.
const (
	StrategyShell  = "shell"
	StrategyScript = "script"
)

// Target describes the external program for either strategy.
type Target struct {
	Strategy string

	Shell   string
	Command string

	Interpreter string
	Script      string
}

// New builds the Dispatcher selected by t.Strategy.
func New(t Target, opts Options) (Dispatcher, error) {
	switch t.Strategy {
	case StrategyShell:
		if strings.TrimSpace(t.Shell) == "" || strings.TrimSpace(t.Command) == "" {
			return nil, fmt.Errorf("shell strategy needs a shell and a command")
		}
		return NewShellPipeline(t.Shell, t.Command, opts), nil
	case StrategyScript:
		if strings.TrimSpace(t.Interpreter) == "" {
			return nil, fmt.Errorf("script strategy needs an interpreter")
		}
		return NewDelegateScript(t.Interpreter, t.Script, opts), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (expected %s|%s)", t.Strategy, StrategyShell, StrategyScript)
	}
}
