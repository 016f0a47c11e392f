// Package logging holds the logger plumbing shared by library packages.
//
// Library code never calls slog.SetDefault: each component receives a
// *slog.Logger at construction, scopes it once with a "component" attribute,
// and logs only at lifecycle boundaries (store opened, grid built, import
// finished). Output configuration belongs to the CLI.
package logging

import (
	"context"
	"log/slog"
)

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns logger if non-nil, otherwise a discard logger.
//
//	func NewBuilder(s Store, logger *slog.Logger) *Builder {
//	    logger = logging.Default(logger)
//	    return &Builder{logger: logger.With("component", "counttable")}
//	}
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
