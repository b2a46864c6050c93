package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/deckedit/internal/config"
	"github.com/dgallion1/deckedit/internal/deck"
	"github.com/dgallion1/deckedit/internal/decks"
	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
	"github.com/dgallion1/deckedit/internal/notify"
	"github.com/dgallion1/deckedit/internal/pptx/pptxtest"
	"github.com/dgallion1/deckedit/internal/translate"
)

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	fails int // leading retryable failures
	cmd   edit.Command
	err   error
	seen  []deck.SlideText
}

func (f *fakeTranslator) Translate(_ context.Context, _ string, slides []deck.SlideText) (edit.Command, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = slides
	if f.calls <= f.fails {
		return edit.Command{}, &translate.RetryableError{StatusCode: 503}
	}
	return f.cmd, f.err
}

type memRecorder struct {
	mu      sync.Mutex
	entries []journal.Entry
}

func (m *memRecorder) Record(_ context.Context, e journal.Entry) (journal.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memRecorder) all() []journal.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]journal.Entry(nil), m.entries...)
}

type memPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (m *memPublisher) Publish(ev notify.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *memPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

type fixture struct {
	store *decks.Store
	deck  decks.Meta
	rec   *memRecorder
	pub   *memPublisher
	ed    *Editor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := decks.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	m, err := store.Create("talk.pptx", pptxtest.Deck(t,
		pptxtest.Slide("", "Hello World"),
		pptxtest.Slide("FFFFFF", "Second"),
	))
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{store: store, deck: m, rec: &memRecorder{}, pub: &memPublisher{}}
	f.ed = NewEditor(edit.NewEngine(nil), store, f.rec, f.pub, nil)
	return f
}

func startOrchestrator(t *testing.T, f *fixture, tr Translator) *Orchestrator {
	t.Helper()
	cfg := config.Config{WorkerCount: 2, MaxQueueSize: 10, JobTTL: time.Hour}
	o := NewOrchestrator(cfg, tr, f.ed, nil).WithRetry(RetryPolicy{MaxAttempts: 3})
	o.Start(context.Background())
	t.Cleanup(o.Stop)
	return o
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		snap := job.Snapshot()
		if snap.Status.Done() {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %q", snap.ID, snap.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestOrchestrator_CompletesInstruction(t *testing.T) {
	f := newFixture(t)
	tr := &fakeTranslator{fails: 1, cmd: edit.UpdateText(1, "World", "Earth")}
	o := startOrchestrator(t, f, tr)

	job, err := o.Submit(f.deck.ID, "say Earth instead of World")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := waitDone(t, job)
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%s)", snap.Status, snap.Error)
	}
	if snap.Attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", snap.Attempts)
	}
	if snap.Result == nil || snap.Result.Replacements != 1 {
		t.Errorf("unexpected result %+v", snap.Result)
	}
	if len(tr.seen) != 2 || tr.seen[0].Texts[0] != "Hello World" {
		t.Errorf("expected slide snapshot passed to translator, got %+v", tr.seen)
	}

	path, _ := f.store.Path(f.deck.ID)
	slides, err := deck.InspectFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if slides[0].Texts[0] != "Hello Earth" {
		t.Errorf("expected edit on disk, got %q", slides[0].Texts[0])
	}

	entries := f.rec.all()
	if len(entries) != 1 || entries[0].Source != journal.SourceInstruction || entries[0].Instruction == "" {
		t.Errorf("unexpected journal %+v", entries)
	}
	if f.pub.count() != 1 {
		t.Errorf("expected 1 event, got %d", f.pub.count())
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job retrievable by id")
	}
}

func TestOrchestrator_NoMatch(t *testing.T) {
	f := newFixture(t)
	o := startOrchestrator(t, f, &fakeTranslator{cmd: edit.UpdateText(2, "Missing", "x")})

	job, _ := o.Submit(f.deck.ID, "rename missing")
	snap := waitDone(t, job)
	if snap.Status != StatusNoMatch || snap.Warning == "" {
		t.Errorf("expected no_match with warning, got %q %q", snap.Status, snap.Warning)
	}
	if f.pub.count() != 0 {
		t.Errorf("expected no event for unmatched edit, got %d", f.pub.count())
	}
	if len(f.rec.all()) != 1 {
		t.Errorf("expected unmatched edit journaled")
	}
}

func TestOrchestrator_Failures(t *testing.T) {
	tests := []struct {
		name string
		tr   *fakeTranslator
	}{
		{"untranslatable", &fakeTranslator{err: &translate.UntranslatableError{Reason: "unclear"}}},
		{"retries exhausted", &fakeTranslator{fails: 5}},
		{"slide missing", &fakeTranslator{cmd: edit.ChangeBackground(9, "FF0000")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			o := startOrchestrator(t, f, tt.tr)
			job, err := o.Submit(f.deck.ID, "do something")
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			snap := waitDone(t, job)
			if snap.Status != StatusFailed || snap.Error == "" {
				t.Errorf("expected failed with error, got %q %q", snap.Status, snap.Error)
			}
		})
	}
}

func TestOrchestrator_SubmitUnknownDeck(t *testing.T) {
	f := newFixture(t)
	o := startOrchestrator(t, f, &fakeTranslator{})
	_, err := o.Submit("0b5c4c1e-6a57-4c8e-9d43-3f0f6c6b1d2a", "x")
	if !errors.Is(err, decks.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	f := newFixture(t)
	o := NewOrchestrator(config.Config{WorkerCount: 1, MaxQueueSize: 1}, &fakeTranslator{}, f.ed, nil)
	o.Start(context.Background())
	o.Stop()
	o.Stop()
	if _, err := o.Submit(f.deck.ID, "x"); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	f := newFixture(t)
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(config.Config{WorkerCount: 1, MaxQueueSize: 1}, &fakeTranslator{}, f.ed, nil)
	if _, err := o.Submit(f.deck.ID, "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	job, err := o.Submit(f.deck.ID, "second")
	if err == nil {
		t.Fatal("expected queue full error")
	}
	if job == nil || job.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job marked failed, got %+v", job)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}
