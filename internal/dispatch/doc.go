// Package dispatch forwards serialized receipts to an external print program.
//
// A Dispatcher spawns exactly one process per call, waits for it, and relays
// the outcome as a Result:
//
//   - exit success: decoded stdout (Success, possibly empty)
//   - exit failure: decoded stderr (Failure, ErrExternalProcess)
//   - output that is not valid UTF-8 (Failure, ErrEncoding)
//   - the process could not be started (Failure, ErrSpawn)
//   - the deadline passed or ctx was cancelled (Failure, ErrTimeout)
//
// Two strategies are provided. ShellPipeline embeds the receipt into a
// single-quoted argument of a login shell command line; DelegateScript passes
// it as an argument vector to a script interpreter. Prefer DelegateScript for
// text you do not control: shell-string construction is injection-prone even
// with escaping.
//
// Dispatchers hold no mutable state. Concurrent calls spawn unrelated
// processes.
package dispatch
