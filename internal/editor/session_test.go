package editor

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/cvcraft/internal/apperr"
	"github.com/starford/cvcraft/internal/document"
	"github.com/starford/cvcraft/internal/models"
	"github.com/starford/cvcraft/internal/printview"
	"github.com/starford/cvcraft/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

type fakeMeasurer struct {
	calls   atomic.Int32
	section float64
}

func (f *fakeMeasurer) Measure(_ context.Context, html []byte) (printview.Measurements, error) {
	f.calls.Add(1)
	n := countSections(html)
	m := printview.Measurements{Header: 0, Sections: make([]float64, n)}
	for i := range m.Sections {
		m.Sections[i] = f.section
	}
	return m, nil
}

func countSections(html []byte) int {
	return bytes.Count(html, []byte("data-section-id="))
}

type fakePrinter struct{}

func (fakePrinter) PrintPDF(_ context.Context, html []byte) ([]byte, error) {
	return append([]byte("%PDF-fake "), html[:10]...), nil
}

func newSession(t *testing.T, opts ...Option) (*Session, *recorder) {
	t.Helper()
	rec := &recorder{}
	base := []Option{
		WithIDGenerator(document.IDFunc(testutil.SequenceIDs("id"))),
		WithDebounce(time.Hour),
		WithPageHeight(1000),
		WithEvents(rec.record),
	}
	s := New(SeedFunc(testutil.SampleDocument), append(base, opts...)...)
	t.Cleanup(s.Close)
	return s, rec
}

func mustApply(t *testing.T, s *Session, m Mutation) State {
	t.Helper()
	st, err := s.Apply(context.Background(), m)
	if err != nil {
		t.Fatalf("Apply(%+v): %v", m, err)
	}
	return st
}

func TestNew_InitialState(t *testing.T) {
	s, _ := newSession(t)
	st := s.State()
	if diff := cmp.Diff(testutil.SampleDocument(), st.Document); diff != "" {
		t.Errorf("initial document (-want +got):\n%s", diff)
	}
	if st.CanUndo {
		t.Error("fresh session should have nothing to undo")
	}
	if st.ThemeColor != printview.DefaultThemeColor {
		t.Errorf("theme = %q", st.ThemeColor)
	}
	if st.Checksum == "" || st.Revision == 0 {
		t.Errorf("revision=%d checksum=%q", st.Revision, st.Checksum)
	}
}

func TestUndo_RestoresInitialAfterNMutations(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	initial := s.Document()

	muts := []Mutation{
		{Op: OpAddSection, Index: intPtr(0)},
		{Op: OpMoveSection, SectionID: "skills", Direction: models.Up},
		{Op: OpUpdateEntry, SectionID: "work", EntryID: "w1", Field: models.FieldTitle, Value: "Lead"},
		{Op: OpUpdatePersonalInfo, Field: models.FieldName, Value: "Someone Else"},
		{Op: OpDeleteEntry, SectionID: "skills", EntryID: "p2"},
	}
	for _, m := range muts {
		mustApply(t, s, m)
	}

	var st State
	for range muts {
		st = s.Undo(ctx)
	}
	if diff := cmp.Diff(initial, st.Document); diff != "" {
		t.Fatalf("after undos (-want +got):\n%s", diff)
	}
	if st.CanUndo {
		t.Error("CanUndo true at the initial state")
	}

	again := s.Undo(ctx)
	if diff := cmp.Diff(initial, again.Document); diff != "" {
		t.Errorf("extra undo changed document:\n%s", diff)
	}
	if again.Revision != st.Revision {
		t.Errorf("extra undo bumped revision %d -> %d", st.Revision, again.Revision)
	}
}

func TestUndo_RevertsPersonalInfo(t *testing.T) {
	s, _ := newSession(t)
	mustApply(t, s, Mutation{Op: OpUpdatePersonalInfo, Field: models.FieldEmail, Value: "new@example.com"})
	st := s.Undo(context.Background())
	if st.Document.PersonalInfo.Email != "jane@example.com" {
		t.Errorf("email = %q after undo", st.Document.PersonalInfo.Email)
	}
}

func TestUndo_BranchPruned(t *testing.T) {
	s, _ := newSession(t)
	ctx := context.Background()
	rename := func(title string) Mutation {
		return Mutation{Op: OpRenameSection, SectionID: "edu", Value: Value(title)}
	}

	mustApply(t, s, rename("A"))
	mustApply(t, s, rename("B"))
	if st := s.Undo(ctx); st.Document.Sections[1].Title != "A" {
		t.Fatalf("undo = %q, want A", st.Document.Sections[1].Title)
	}
	mustApply(t, s, rename("C"))

	if st := s.Undo(ctx); st.Document.Sections[1].Title != "A" {
		t.Errorf("undo after branch = %q, want A", st.Document.Sections[1].Title)
	}
}

func TestApply_NoOpsDoNotCommit(t *testing.T) {
	s, rec := newSession(t)
	before := s.State()

	noOps := []Mutation{
		{Op: OpDeleteSection, SectionID: "missing"},
		{Op: OpMoveSection, SectionID: "work", Direction: models.Up},
		{Op: OpMoveEntry, SectionID: "work", EntryID: "w3", Direction: models.Down},
		{Op: OpUpdateEntry, SectionID: "work", EntryID: "missing", Field: models.FieldTitle, Value: "x"},
		{Op: OpDeleteEntry, SectionID: "missing", EntryID: "w1"},
		{Op: OpUpdatePersonalInfo, Field: "shoe_size", Value: "42"},
	}
	for _, m := range noOps {
		st := mustApply(t, s, m)
		if st.Revision != before.Revision {
			t.Errorf("%s bumped revision", m.Op)
		}
	}
	if s.State().CanUndo {
		t.Error("no-op mutations were committed to history")
	}
	if n := rec.count(EventDocumentUpdated); n != 0 {
		t.Errorf("document.updated events = %d, want 0", n)
	}
}

func TestApply_DeleteTwiceIdempotent(t *testing.T) {
	s, _ := newSession(t)
	del := Mutation{Op: OpDeleteSection, SectionID: "edu"}
	first := mustApply(t, s, del)
	second := mustApply(t, s, del)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second delete changed state (-first +second):\n%s", diff)
	}
}

func TestApply_IDCollisionRejected(t *testing.T) {
	s, _ := newSession(t, WithIDGenerator(document.IDFunc(func() string { return "edu" })))
	before := s.State()

	st := mustApply(t, s, Mutation{Op: OpAddSection, Index: intPtr(0)})
	if diff := cmp.Diff(before, st); diff != "" {
		t.Errorf("colliding section was inserted (-before +after):\n%s", diff)
	}

	s2, _ := newSession(t, WithIDGenerator(document.IDFunc(func() string { return "w1" })))
	st = mustApply(t, s2, Mutation{Op: OpAddEntry, SectionID: "work", Kind: string(models.EntryStandard)})
	if n := len(st.Document.Sections[0].Entries); n != 3 {
		t.Errorf("entries = %d, colliding entry was inserted", n)
	}
}

func TestApply_AddSectionPlacement(t *testing.T) {
	s, _ := newSession(t)

	st := mustApply(t, s, Mutation{Op: OpAddSection, Index: intPtr(0)})
	if got := st.Document.Sections[1].ID; got != "id-1" {
		t.Errorf("section[1] = %q, want id-1", got)
	}
	st = mustApply(t, s, Mutation{Op: OpAddSection, Kind: string(models.SectionSkills)})
	last := st.Document.Sections[len(st.Document.Sections)-1]
	if last.ID != "id-2" || last.Kind != models.SectionSkills {
		t.Errorf("appended section = %+v", last)
	}
}

func TestApply_SkillLevelClamped(t *testing.T) {
	s, _ := newSession(t)
	st := mustApply(t, s, Mutation{Op: OpUpdateEntry, SectionID: "skills", EntryID: "l1", Field: models.FieldLevel, Value: LevelValue(7)})
	if lvl := st.Document.Sections[2].Entries[0].Level; lvl != 5 {
		t.Errorf("level = %d, want 5", lvl)
	}
	st = mustApply(t, s, Mutation{Op: OpUpdateEntry, SectionID: "skills", EntryID: "l1", Field: models.FieldLevel, Value: LevelValue(-3)})
	if lvl := st.Document.Sections[2].Entries[0].Level; lvl != 1 {
		t.Errorf("level = %d, want 1", lvl)
	}
}

func TestApply_Invalid(t *testing.T) {
	s, _ := newSession(t)
	tests := []Mutation{
		{},
		{Op: "explode"},
		{Op: OpMoveSection, SectionID: "edu"},
		{Op: OpMoveEntry, SectionID: "work", EntryID: "w1", Direction: "left"},
		{Op: OpAddEntry, SectionID: "skills", Kind: "hobby"},
		{Op: OpAddSection, Kind: "fancy"},
		{Op: OpUpdateEntry, SectionID: "work", EntryID: "w1"},
	}
	for _, m := range tests {
		if _, err := s.Apply(context.Background(), m); !errors.Is(err, apperr.ErrInvalidMutation) {
			t.Errorf("Apply(%+v) err = %v, want ErrInvalidMutation", m, err)
		}
	}
}

func TestReset(t *testing.T) {
	calls := 0
	seed := SeedFunc(func() models.Document {
		calls++
		doc := testutil.SampleDocument()
		if calls > 1 {
			doc.PersonalInfo.Name = "Reseeded"
		}
		return doc
	})
	s := New(seed, WithDebounce(time.Hour))
	t.Cleanup(s.Close)
	ctx := context.Background()

	mustApply(t, s, Mutation{Op: OpDeleteSection, SectionID: "work"})
	before := s.State().Revision
	st := s.Reset(ctx)

	if st.Document.PersonalInfo.Name != "Reseeded" || len(st.Document.Sections) != 3 {
		t.Errorf("reset document = %+v", st.Document.PersonalInfo)
	}
	if st.CanUndo {
		t.Error("reset should clear history")
	}
	if st.Revision <= before {
		t.Error("reset did not bump revision")
	}
	if after := s.Undo(ctx); after.Revision != st.Revision {
		t.Error("undo after reset changed state")
	}
}

func TestRequestPaginationRefresh(t *testing.T) {
	s, rec := newSession(t)

	breaks := s.RequestPaginationRefresh(0, []float64{400, 400, 400}, 0)
	if diff := cmp.Diff([]int{2}, breaks); diff != "" {
		t.Errorf("breaks (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2}, s.State().PageBreaks); diff != "" {
		t.Errorf("state breaks (-want +got):\n%s", diff)
	}
	if rec.count(EventPaginationUpdated) == 0 {
		t.Error("no pagination event")
	}

	if got := s.RequestPaginationRefresh(0, []float64{1500}, 1000); len(got) != 0 {
		t.Errorf("tall single section breaks = %v", got)
	}
}

func TestRequestPaginationRefresh_ExtraHeightsIgnored(t *testing.T) {
	s, _ := newSession(t)

	got := s.RequestPaginationRefresh(0, []float64{400, 400, 400, 400, 400}, 0)
	if diff := cmp.Diff([]int{2}, got); diff != "" {
		t.Errorf("breaks (-want +got):\n%s", diff)
	}
}

func TestReportMeasurements_StaleIgnored(t *testing.T) {
	s, _ := newSession(t)
	rev := s.State().Revision
	mustApply(t, s, Mutation{Op: OpRenameSection, SectionID: "edu", Value: "Studies"})

	m := printview.Measurements{Sections: []float64{400, 400, 400}}
	if _, used := s.ReportMeasurements(rev, m); used {
		t.Error("stale measurements were used")
	}
	if len(s.PageBreaks()) != 0 {
		t.Error("stale measurements changed breaks")
	}

	breaks, used := s.ReportMeasurements(s.State().Revision, m)
	if !used || !cmp.Equal([]int{2}, breaks) {
		t.Errorf("fresh measurements: used=%v breaks=%v", used, breaks)
	}
}

func TestRefresh_HeightsFollowSections(t *testing.T) {
	s, _ := newSession(t)
	if got := s.RequestPaginationRefresh(0, []float64{950, 100, 100}, 0); !cmp.Equal([]int{1}, got) {
		t.Fatalf("initial breaks = %v", got)
	}

	// Moving the tall section last: work is now at index 2.
	mustApply(t, s, Mutation{Op: OpMoveSection, SectionID: "work", Direction: models.Down})
	mustApply(t, s, Mutation{Op: OpMoveSection, SectionID: "work", Direction: models.Down})
	s.sched.Flush()

	if diff := cmp.Diff([]int{2}, s.PageBreaks()); diff != "" {
		t.Errorf("breaks after reorder (-want +got):\n%s", diff)
	}
}

func TestRefresh_UnmeasuredIsZero(t *testing.T) {
	s, _ := newSession(t)
	s.sched.Flush()
	if len(s.PageBreaks()) != 0 {
		t.Errorf("breaks without measurements = %v", s.PageBreaks())
	}
}

func TestRefresh_DebouncedMeasurement(t *testing.T) {
	m := &fakeMeasurer{section: 400}
	s, rec := newSession(t, WithDebounce(100*time.Millisecond), WithMeasurer(m))

	for _, title := range []string{"a", "b", "c"} {
		mustApply(t, s, Mutation{Op: OpRenameSection, SectionID: "edu", Value: Value(title)})
	}

	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return cmp.Equal([]int{2}, s.PageBreaks())
	}, "measured breaks never arrived")

	time.Sleep(250 * time.Millisecond)
	if n := m.calls.Load(); n != 1 {
		t.Errorf("measure calls = %d, want 1 for one settled burst", n)
	}
	if rec.count(EventPaginationUpdated) == 0 {
		t.Error("no pagination event published")
	}
}

func TestExportToPrintView(t *testing.T) {
	s, rec := newSession(t)
	s.RequestPaginationRefresh(0, []float64{400, 400, 400}, 0)

	job, err := s.ExportToPrintView(context.Background())
	if err != nil {
		t.Fatalf("ExportToPrintView: %v", err)
	}
	if job.Revision != s.State().Revision {
		t.Errorf("job revision = %d", job.Revision)
	}
	if !cmp.Equal([]int{2}, job.PageBreaks) {
		t.Errorf("job breaks = %v", job.PageBreaks)
	}
	if len(job.HTML) == 0 {
		t.Error("empty print html")
	}
	if rec.count(EventPrintRequested) != 1 {
		t.Error("print.requested not published")
	}
}

type blockingMeasurer struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (b *blockingMeasurer) Measure(ctx context.Context, html []byte) (printview.Measurements, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return printview.Measurements{}, ctx.Err()
	}
	m := printview.Measurements{Sections: make([]float64, countSections(html))}
	for i := range m.Sections {
		m.Sections[i] = 600
	}
	return m, nil
}

func TestExportToPrintView_WaitsForRunningMeasurement(t *testing.T) {
	m := &blockingMeasurer{started: make(chan struct{}), release: make(chan struct{})}
	s, _ := newSession(t, WithDebounce(10*time.Millisecond), WithMeasurer(m))

	select {
	case <-m.started:
	case <-time.After(time.Second):
		t.Fatal("measurement did not start")
	}

	type result struct {
		job PrintJob
		err error
	}
	done := make(chan result, 1)
	go func() {
		job, err := s.ExportToPrintView(context.Background())
		done <- result{job, err}
	}()

	select {
	case <-done:
		t.Fatal("export finished while the measurement was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(m.release)
	var res result
	select {
	case res = <-done:
	case <-time.After(time.Second):
		t.Fatal("export did not finish")
	}
	if res.err != nil {
		t.Fatalf("ExportToPrintView: %v", res.err)
	}
	if diff := cmp.Diff([]int{1, 2}, res.job.PageBreaks); diff != "" {
		t.Errorf("job breaks (-want +got):\n%s", diff)
	}
}

func TestExportPDF(t *testing.T) {
	s, _ := newSession(t)
	if _, err := s.ExportPDF(context.Background()); !errors.Is(err, apperr.ErrPrinterUnavailable) {
		t.Fatalf("err = %v, want ErrPrinterUnavailable", err)
	}

	s2, _ := newSession(t, WithPrinter(fakePrinter{}))
	pdf, err := s2.ExportPDF(context.Background())
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if string(pdf[:5]) != "%PDF-" {
		t.Errorf("pdf = %q", pdf)
	}
}

func TestSetThemeColor(t *testing.T) {
	s, rec := newSession(t)
	st, err := s.SetThemeColor(context.Background(), "#112233")
	if err != nil {
		t.Fatalf("SetThemeColor: %v", err)
	}
	if st.ThemeColor != "#112233" || rec.count(EventThemeUpdated) != 1 {
		t.Errorf("theme = %q events = %d", st.ThemeColor, rec.count(EventThemeUpdated))
	}
	if _, err := s.SetThemeColor(context.Background(), "blue"); !errors.Is(err, apperr.ErrInvalidTheme) {
		t.Errorf("err = %v, want ErrInvalidTheme", err)
	}
	if st.CanUndo {
		t.Error("theme change entered history")
	}
}

func TestEvents_DeliveredInRevisionOrder(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu   sync.Mutex
		revs []uint64
	)
	sink := func(ev Event) {
		if ev.Type != EventDocumentUpdated {
			return
		}
		rev := ev.Data.(map[string]any)["revision"].(uint64)
		if rev == 2 {
			close(entered)
			<-release
		}
		mu.Lock()
		revs = append(revs, rev)
		mu.Unlock()
	}
	s, _ := newSession(t, WithEvents(sink))

	var wg sync.WaitGroup
	apply := func(title string) {
		defer wg.Done()
		m := Mutation{Op: OpRenameSection, SectionID: "edu", Value: Value(title)}
		if _, err := s.Apply(context.Background(), m); err != nil {
			t.Errorf("Apply(%q): %v", title, err)
		}
	}

	wg.Add(1)
	go apply("Studies")
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first event was not delivered")
	}

	wg.Add(1)
	go apply("Education and training")
	testutil.Eventually(t, time.Second, 5*time.Millisecond, func() bool {
		return s.State().Revision == 3
	}, "second mutation was not applied")
	time.Sleep(20 * time.Millisecond)

	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]uint64{2, 3}, revs); diff != "" {
		t.Errorf("delivered revisions (-want +got):\n%s", diff)
	}
	if len(revs) == 0 {
		return
	}
	if last := revs[len(revs)-1]; last != s.State().Revision {
		t.Errorf("last delivered revision = %d, current = %d", last, s.State().Revision)
	}
}

func intPtr(n int) *int { return &n }
