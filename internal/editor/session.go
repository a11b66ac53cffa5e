// Package editor owns the editing session: the current résumé, its undo
// history and the page breaks derived from measured layout.
//
// Every public method runs to completion under the session lock, so
// collaborators calling from several goroutines observe the same sequence
// of states as a single event loop would. Events are delivered in the order
// the changes were made. The document is replaced wholesale on every change
// and handed out as a copy.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/starford/cvcraft/internal/apperr"
	"github.com/starford/cvcraft/internal/checksum"
	"github.com/starford/cvcraft/internal/document"
	"github.com/starford/cvcraft/internal/history"
	"github.com/starford/cvcraft/internal/models"
	"github.com/starford/cvcraft/internal/pagination"
	"github.com/starford/cvcraft/internal/printview"
)

// Event types published by a session.
const (
	EventDocumentUpdated   = "document.updated"
	EventPaginationUpdated = "pagination.updated"
	EventThemeUpdated      = "theme.updated"
	EventPrintRequested    = "print.requested"
)

// Reasons attached to document.updated events.
const (
	ReasonMutation = "mutation"
	ReasonUndo     = "undo"
	ReasonReset    = "reset"
)

// Event is a state change notification for collaborators.
type Event struct {
	Type string
	Data any
}

// EventFunc receives session events. It is called outside the session lock,
// one event at a time, and must not change the session itself.
type EventFunc func(Event)

// Seeder supplies the document a session starts from and resets to.
type Seeder interface {
	Document() models.Document
}

// SeedFunc adapts a function to Seeder.
type SeedFunc func() models.Document

// Document calls f.
func (f SeedFunc) Document() models.Document { return f() }

// State is a consistent view of the session.
type State struct {
	Document   models.Document `json:"document"`
	Revision   uint64          `json:"revision"`
	Checksum   string          `json:"checksum"`
	PageBreaks []int           `json:"page_breaks"`
	ThemeColor string          `json:"theme_color"`
	CanUndo    bool            `json:"can_undo"`
}

// PrintJob is a print-formatted rendering of one revision.
type PrintJob struct {
	Revision   uint64
	PageBreaks []int
	HTML       []byte
}

// Session is one editing session.
type Session struct {
	seeder   Seeder
	ids      document.IDGenerator
	measurer printview.Measurer
	printer  printview.Printer
	onEvent  EventFunc
	logger   *slog.Logger

	pageHeight   float64
	debounce     time.Duration
	historyLimit int

	sched *pagination.Scheduler

	mu       sync.Mutex
	doc      models.Document
	hist     *history.History
	revision uint64
	sum      string
	theme    string
	header   float64
	heights  map[string]float64
	breaks   []int
	tickets  uint64

	pubMu   sync.Mutex
	pubTurn *sync.Cond
	pubNext uint64
}

// New starts a session from the seeder's document. The initial document is
// the first history snapshot.
func New(seeder Seeder, opts ...Option) *Session {
	s := &Session{
		seeder:     seeder,
		ids:        document.UUIDs{},
		logger:     slog.Default(),
		pageHeight: pagination.DefaultPageHeight,
		debounce:   pagination.DefaultDebounce,
		theme:      printview.DefaultThemeColor,
		heights:    make(map[string]float64),
		breaks:     []int{},
	}
	s.pubTurn = sync.NewCond(&s.pubMu)
	for _, opt := range opts {
		opt(s)
	}

	s.doc = seeder.Document()
	s.hist = history.New(s.doc, history.WithMaxEntries(s.historyLimit))
	s.revision = 1
	s.sum = checksum.Of(s.doc)
	s.sched = pagination.NewScheduler(s.debounce, s.refresh)
	s.sched.Trigger()
	return s
}

// Close stops pending pagination work.
func (s *Session) Close() {
	s.sched.Stop()
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Document returns a copy of the current document.
func (s *Session) Document() models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Apply validates and applies m. A mutation that leaves the document
// unchanged (unknown ids, moves past a boundary, id collisions) is not
// recorded in history. Only malformed mutations return an error.
func (s *Session) Apply(_ context.Context, m Mutation) (State, error) {
	if err := m.Validate(); err != nil {
		return s.State(), err
	}

	var id string
	if m.needsID() {
		id = s.ids.NewID()
	}

	s.mu.Lock()
	next := m.apply(s.doc, id)
	if next.Equal(s.doc) {
		st := s.stateLocked()
		s.mu.Unlock()
		s.logger.Debug("mutation ignored", slog.String("op", string(m.Op)))
		return st, nil
	}
	s.hist.Commit(next)
	ev := s.replaceLocked(next, ReasonMutation)
	ticket := s.ticketLocked()
	st := s.stateLocked()
	s.mu.Unlock()

	s.logger.Debug("mutation applied",
		slog.String("op", string(m.Op)),
		slog.Uint64("revision", st.Revision))
	s.changed(ticket, ev)
	return st, nil
}

// Undo restores the previous snapshot. With nothing to undo the state is
// returned unchanged.
func (s *Session) Undo(_ context.Context) State {
	s.mu.Lock()
	prev, ok := s.hist.Undo()
	if !ok {
		st := s.stateLocked()
		s.mu.Unlock()
		return st
	}
	ev := s.replaceLocked(prev, ReasonUndo)
	ticket := s.ticketLocked()
	st := s.stateLocked()
	s.mu.Unlock()

	s.changed(ticket, ev)
	return st
}

// Reset replaces the document with the seed and starts history afresh.
// The reset itself cannot be undone.
func (s *Session) Reset(_ context.Context) State {
	doc := s.seeder.Document()

	s.mu.Lock()
	s.hist.Reset(doc)
	ev := s.replaceLocked(doc, ReasonReset)
	ticket := s.ticketLocked()
	st := s.stateLocked()
	s.mu.Unlock()

	s.logger.Info("document reset", slog.Uint64("revision", st.Revision))
	s.changed(ticket, ev)
	return st
}

// SetThemeColor changes the accent colour used by the print view. It is
// not part of the history.
func (s *Session) SetThemeColor(_ context.Context, color string) (State, error) {
	if !printview.ValidThemeColor(color) {
		return s.State(), fmt.Errorf("%w: %q", apperr.ErrInvalidTheme, color)
	}
	s.mu.Lock()
	s.theme = color
	ticket := s.ticketLocked()
	st := s.stateLocked()
	s.mu.Unlock()

	s.publish(ticket, Event{Type: EventThemeUpdated, Data: map[string]string{"theme_color": color}})
	return st, nil
}

// RequestPaginationRefresh computes page breaks from the given block
// heights, which follow the current section order, and publishes them.
// A non-positive pageHeight selects the configured page height.
func (s *Session) RequestPaginationRefresh(headerHeight float64, sectionHeights []float64, pageHeight float64) []int {
	s.mu.Lock()
	ev := s.measuredLocked(headerHeight, sectionHeights, pageHeight)
	ticket := s.ticketLocked()
	breaks := slices.Clone(s.breaks)
	s.mu.Unlock()

	s.publish(ticket, ev)
	return breaks
}

// ReportMeasurements records heights measured for a revision. Measurements
// of any revision other than the current one are stale and ignored; the
// boolean reports whether they were used.
func (s *Session) ReportMeasurements(revision uint64, m printview.Measurements) ([]int, bool) {
	s.mu.Lock()
	if current := s.revision; revision != current {
		breaks := slices.Clone(s.breaks)
		s.mu.Unlock()
		s.logger.Debug("stale measurements ignored",
			slog.Uint64("revision", revision),
			slog.Uint64("current", current))
		return breaks, false
	}
	ev := s.measuredLocked(m.Header, m.Sections, 0)
	ticket := s.ticketLocked()
	breaks := slices.Clone(s.breaks)
	s.mu.Unlock()

	s.publish(ticket, ev)
	return breaks, true
}

// PageBreaks returns the latest page breaks.
func (s *Session) PageBreaks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.breaks)
}

// ExportToPrintView settles any pending pagination and renders the current
// document for printing. Collaborators are told through a print.requested
// event; producing paper or PDF is the host's job.
func (s *Session) ExportToPrintView(_ context.Context) (PrintJob, error) {
	s.sched.Flush()

	s.mu.Lock()
	doc := s.doc.Clone()
	job := PrintJob{Revision: s.revision, PageBreaks: slices.Clone(s.breaks)}
	theme := s.theme
	s.mu.Unlock()

	html, err := printview.Render(doc, job.PageBreaks, theme)
	if err != nil {
		return PrintJob{}, err
	}
	job.HTML = html

	s.mu.Lock()
	ticket := s.ticketLocked()
	s.mu.Unlock()
	s.publish(ticket, Event{Type: EventPrintRequested, Data: map[string]any{"revision": job.Revision}})
	return job, nil
}

// ExportPDF prints the current document through the configured printer.
func (s *Session) ExportPDF(ctx context.Context) ([]byte, error) {
	if s.printer == nil {
		return nil, apperr.ErrPrinterUnavailable
	}
	job, err := s.ExportToPrintView(ctx)
	if err != nil {
		return nil, err
	}
	return s.printer.PrintPDF(ctx, job.HTML)
}

// refresh is the debounced pagination pass. With a measurer the current
// revision is laid out and measured; without one the last reported heights
// are reused, with zero for sections that were never measured.
func (s *Session) refresh(ctx context.Context) {
	s.mu.Lock()
	doc := s.doc.Clone()
	revision := s.revision
	theme := s.theme
	header := s.header
	heights := make([]float64, len(doc.Sections))
	for i, sec := range doc.Sections {
		heights[i] = s.heights[sec.ID]
	}
	s.mu.Unlock()

	if s.measurer == nil {
		s.mu.Lock()
		if revision != s.revision {
			s.mu.Unlock()
			return
		}
		ev := s.measuredLocked(header, heights, 0)
		ticket := s.ticketLocked()
		s.mu.Unlock()
		s.publish(ticket, ev)
		return
	}

	html, err := printview.Render(doc, nil, theme)
	if err != nil {
		s.logger.Warn("pagination: render failed", slog.String("error", err.Error()))
		return
	}
	m, err := s.measurer.Measure(ctx, html)
	if err != nil {
		s.logger.Warn("pagination: measure failed", slog.String("error", err.Error()))
		return
	}
	s.ReportMeasurements(revision, m)
}

func (s *Session) measuredLocked(header float64, sectionHeights []float64, pageHeight float64) Event {
	if pageHeight <= 0 {
		pageHeight = s.pageHeight
	}
	if len(sectionHeights) > len(s.doc.Sections) {
		sectionHeights = sectionHeights[:len(s.doc.Sections)]
	}
	s.header = header
	for i, h := range sectionHeights {
		s.heights[s.doc.Sections[i].ID] = h
	}
	s.breaks = pagination.ComputeBreaks(header, sectionHeights, pageHeight)
	return Event{Type: EventPaginationUpdated, Data: map[string]any{
		"revision":    s.revision,
		"page_breaks": slices.Clone(s.breaks),
		"pages":       pagination.PageCount(s.breaks),
	}}
}

func (s *Session) replaceLocked(doc models.Document, reason string) Event {
	s.doc = doc
	s.revision++
	s.sum = checksum.Of(doc)
	for id := range s.heights {
		if doc.SectionIndex(id) < 0 {
			delete(s.heights, id)
		}
	}
	return Event{Type: EventDocumentUpdated, Data: map[string]any{
		"revision": s.revision,
		"checksum": s.sum,
		"reason":   reason,
	}}
}

func (s *Session) stateLocked() State {
	return State{
		Document:   s.doc.Clone(),
		Revision:   s.revision,
		Checksum:   s.sum,
		PageBreaks: slices.Clone(s.breaks),
		ThemeColor: s.theme,
		CanUndo:    s.hist.CanUndo(),
	}
}

func (s *Session) changed(ticket uint64, ev Event) {
	s.publish(ticket, ev)
	s.sched.Trigger()
}

// ticketLocked reserves the next delivery slot. Slots are taken under s.mu,
// so their order is the order of the state changes.
func (s *Session) ticketLocked() uint64 {
	t := s.tickets
	s.tickets++
	return t
}

// publish delivers ev once every event holding an earlier ticket has been
// delivered.
func (s *Session) publish(ticket uint64, ev Event) {
	s.pubMu.Lock()
	for s.pubNext != ticket {
		s.pubTurn.Wait()
	}
	s.pubMu.Unlock()

	defer func() {
		s.pubMu.Lock()
		s.pubNext++
		s.pubTurn.Broadcast()
		s.pubMu.Unlock()
	}()
	if s.onEvent != nil {
		s.onEvent(ev)
	}
}
