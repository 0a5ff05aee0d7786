package cli

import (
	"fmt"
	"io"
	"log/slog"

	"receiptprint/internal/config"
	"receiptprint/internal/dispatch"
	"receiptprint/internal/journal"
)

// App is the dispatcher stack assembled from configuration.
type App struct {
	Dispatcher dispatch.Dispatcher
	Recorder   *journal.Recorder
	Store      *journal.Store
	Logger     *slog.Logger
}

// Build wires a dispatcher for cfg: the configured strategy, wrapped in a
// journal that always keeps recent entries in memory and, when
// cfg.JournalDir is set, also on disk. Logs go to logOut at info level, or
// debug level when cfg.Debug is set.
func Build(cfg config.Config, logOut io.Writer) (*App, error) {
	if logOut == nil {
		logOut = io.Discard
	}
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	d, err := dispatch.New(cfg.Target(), dispatch.Options{
		Timeout: cfg.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, &config.Error{Key: "PRINT_STRATEGY", Msg: err.Error()}
	}

	app := &App{Recorder: journal.NewRecorder(cfg.JournalSize), Logger: logger}
	sinks := journal.Multi{app.Recorder}

	if cfg.JournalDir != "" {
		st, err := journal.NewStore(cfg.JournalDir)
		if err != nil {
			return nil, fmt.Errorf("journal store: %w", err)
		}
		st.OnError = func(err error) {
			logger.Warn("journal write failed", "err", err)
		}
		app.Store = st
		sinks = append(sinks, st)
	}

	app.Dispatcher = &dispatch.Journaled{
		Next:     d,
		Strategy: cfg.Strategy,
		Sink:     sinks,
	}
	return app, nil
}
