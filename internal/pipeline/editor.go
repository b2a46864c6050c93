package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
	"github.com/dgallion1/deckedit/internal/notify"
)

// DeckLocator resolves a deck id to its presentation file.
type DeckLocator interface {
	Path(id string) (string, error)
}

// Recorder stores edit history.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// Publisher announces deck changes.
type Publisher interface {
	Publish(ev notify.Event)
}

// EditRequest is one command against one stored deck.
type EditRequest struct {
	DeckID      string
	Source      journal.Source
	Instruction string
	Command     edit.Command
}

// Editor applies commands to stored decks, journaling every attempt and
// announcing edits that changed the deck. Both the synchronous API and the
// instruction workers go through it.
type Editor struct {
	engine *edit.Engine
	decks  DeckLocator
	rec    Recorder
	pub    Publisher
	log    *slog.Logger
}

// NewEditor wires an editor. rec and pub may be nil.
func NewEditor(engine *edit.Engine, decks DeckLocator, rec Recorder, pub Publisher, log *slog.Logger) *Editor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Editor{engine: engine, decks: decks, rec: rec, pub: pub, log: log}
}

// Path resolves a deck id.
func (e *Editor) Path(deckID string) (string, error) {
	return e.decks.Path(deckID)
}

// Apply runs req. An unknown deck fails before anything is journaled.
func (e *Editor) Apply(ctx context.Context, req EditRequest) (edit.Result, error) {
	path, err := e.decks.Path(req.DeckID)
	if err != nil {
		return edit.Result{}, err
	}
	res, applyErr := e.engine.Apply(ctx, path, req.Command)

	if e.rec != nil {
		entry := journal.Entry{
			DeckID:       req.DeckID,
			Source:       req.Source,
			Instruction:  req.Instruction,
			Command:      req.Command,
			Matched:      res.Matched,
			Replacements: res.Replacements,
		}
		if applyErr != nil {
			entry.Error = applyErr.Error()
		}
		// The edit already happened; a journal failure is logged, not returned.
		if _, err := e.rec.Record(context.WithoutCancel(ctx), entry); err != nil {
			e.log.Warn("journal write failed", "deck_id", req.DeckID, "error", err)
		}
	}
	if applyErr != nil {
		return edit.Result{}, applyErr
	}

	if e.pub != nil && res.Matched {
		e.pub.Publish(notify.Event{
			Type:    notify.EventDeckUpdated,
			DeckID:  req.DeckID,
			Source:  string(req.Source),
			Command: req.Command,
			Result:  res,
		})
	}
	return res, nil
}
