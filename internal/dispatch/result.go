package dispatch

// Result is the outcome of a single dispatch.
//
// On success Text is the decoded stdout of the external process. On failure
// Text is the failure description: the verbatim stderr for ErrExternalProcess,
// otherwise a message describing what went wrong.
type Result struct {
	OK   bool
	Text string

	// ExitCode is the process exit code, or -1 when the process never ran to
	// a normal exit (spawn failure, timeout).
	ExitCode int

	err *Error
}

// Success builds a successful Result carrying output.
func Success(output string) Result {
	return Result{OK: true, Text: output}
}

// Failure builds a failed Result from err.
func Failure(err *Error, exitCode int) Result {
	return Result{Text: err.Msg, ExitCode: exitCode, err: err}
}

// Err returns nil for a successful Result and a *Error otherwise.
func (r Result) Err() error {
	if r.OK || r.err == nil {
		return nil
	}
	return r.err
}

// Kind is KindName(r.Err()).
func (r Result) Kind() string {
	return KindName(r.Err())
}
