package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/dgallion1/deckedit/internal/decks"
	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
)

func TestEditor_Apply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.ed.Apply(ctx, EditRequest{
		DeckID:  f.deck.ID,
		Source:  journal.SourceCommand,
		Command: edit.ChangeBackground(1, "#00ff00"),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.Matched || res.Color != "00FF00" {
		t.Errorf("unexpected result %+v", res)
	}
	if f.pub.count() != 1 {
		t.Errorf("expected 1 event, got %d", f.pub.count())
	}
	ev := f.pub.events[0]
	if ev.DeckID != f.deck.ID || ev.Source != string(journal.SourceCommand) {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestEditor_ApplyErrors(t *testing.T) {
	tests := []struct {
		name      string
		deckID    func(*fixture) string
		cmd       edit.Command
		journaled bool
		check     func(error) bool
	}{
		{
			name:      "unknown deck",
			deckID:    func(*fixture) string { return "0b5c4c1e-6a57-4c8e-9d43-3f0f6c6b1d2a" },
			cmd:       edit.UpdateText(1, "a", "b"),
			journaled: false,
			check:     func(err error) bool { return errors.Is(err, decks.ErrNotFound) },
		},
		{
			name:      "slide not found",
			deckID:    func(f *fixture) string { return f.deck.ID },
			cmd:       edit.UpdateText(7, "a", "b"),
			journaled: true,
			check:     edit.IsSlideNotFound,
		},
		{
			name:      "bad command",
			deckID:    func(f *fixture) string { return f.deck.ID },
			cmd:       edit.Command{Action: "resize", Slide: 1},
			journaled: true,
			check:     edit.IsBadCommand,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.ed.Apply(context.Background(), EditRequest{
				DeckID:  tt.deckID(f),
				Source:  journal.SourceCommand,
				Command: tt.cmd,
			})
			if !tt.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			entries := f.rec.all()
			if tt.journaled && (len(entries) != 1 || entries[0].Error == "") {
				t.Errorf("expected failure journaled, got %+v", entries)
			}
			if !tt.journaled && len(entries) != 0 {
				t.Errorf("expected nothing journaled, got %+v", entries)
			}
			if f.pub.count() != 0 {
				t.Errorf("expected no events, got %d", f.pub.count())
			}
		})
	}
}
