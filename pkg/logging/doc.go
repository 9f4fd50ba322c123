// Package logging builds the log/slog loggers used by apihistory.
//
// Request history is user-facing data and lives in package history; this
// package only covers operational logging of the tooling itself.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	h := history.New(history.WithLogger(logger))
//
// Components take a *slog.Logger through an option and fall back to Nop().
package logging
