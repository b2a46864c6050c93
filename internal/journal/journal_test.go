package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/deckedit/internal/edit"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "sub", "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndList(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	first, err := j.Record(ctx, Entry{
		DeckID:       "deck-a",
		Source:       SourceCommand,
		Command:      edit.UpdateText(1, "World", "Earth"),
		Matched:      true,
		Replacements: 2,
		CreatedAt:    base,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == "" {
		t.Error("expected generated id")
	}
	if _, err := j.Record(ctx, Entry{
		DeckID:      "deck-a",
		Source:      SourceInstruction,
		Instruction: "make it red",
		Command:     edit.ChangeBackground(2, "FF0000"),
		Matched:     true,
		CreatedAt:   base.Add(time.Minute),
	}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := j.Record(ctx, Entry{DeckID: "deck-b", Source: SourceCLI, Command: edit.UpdateText(1, "x", "y")}); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := j.List(ctx, "deck-a", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Command.Action != edit.ActionChangeBG || entries[0].Instruction != "make it red" {
		t.Errorf("expected newest first, got %+v", entries[0])
	}
	if entries[1].Command != edit.UpdateText(1, "World", "Earth") || entries[1].Replacements != 2 || !entries[1].Matched {
		t.Errorf("unexpected entry %+v", entries[1])
	}
	if !entries[1].CreatedAt.Equal(base) {
		t.Errorf("expected created_at %v, got %v", base, entries[1].CreatedAt)
	}
}

func TestJournal_ListLimitAndEmpty(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	for i := range 5 {
		j.Record(ctx, Entry{DeckID: "d", Source: SourceCommand, Command: edit.UpdateText(i+1, "a", "b")})
	}
	entries, err := j.List(ctx, "d", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}

	none, err := j.List(ctx, "missing", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", none)
	}
}

func TestJournal_RecordsFailures(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	j.Record(ctx, Entry{DeckID: "d", Source: SourceCommand, Command: edit.UpdateText(9, "a", "b"), Error: "slide 9 not found"})
	entries, _ := j.List(ctx, "d", 1)
	if len(entries) != 1 || entries[0].Error != "slide 9 not found" || entries[0].Matched {
		t.Errorf("unexpected entries %+v", entries)
	}
}
