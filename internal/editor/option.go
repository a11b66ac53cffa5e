package editor

import (
	"log/slog"
	"time"

	"github.com/starford/cvcraft/internal/document"
	"github.com/starford/cvcraft/internal/printview"
)

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithIDGenerator sets the generator for new section and entry ids.
func WithIDGenerator(g document.IDGenerator) Option {
	return func(s *Session) {
		s.ids = g
	}
}

// WithPageHeight sets the printable height of one page.
func WithPageHeight(h float64) Option {
	return func(s *Session) {
		if h > 0 {
			s.pageHeight = h
		}
	}
}

// WithDebounce sets the settle window before pagination is recomputed.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		s.debounce = d
	}
}

// WithHistoryLimit bounds the undo history.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		s.historyLimit = n
	}
}

// WithThemeColor sets the initial accent colour. Invalid colours are ignored.
func WithThemeColor(c string) Option {
	return func(s *Session) {
		if printview.ValidThemeColor(c) {
			s.theme = c
		}
	}
}

// WithMeasurer lays out each settled revision to obtain block heights.
func WithMeasurer(m printview.Measurer) Option {
	return func(s *Session) {
		s.measurer = m
	}
}

// WithPrinter enables PDF export.
func WithPrinter(p printview.Printer) Option {
	return func(s *Session) {
		s.printer = p
	}
}

// WithEvents sets the event sink.
func WithEvents(fn EventFunc) Option {
	return func(s *Session) {
		s.onEvent = fn
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}
