package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/deckedit/internal/deck"
	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
)

// Worker processes a single instruction job.
type Worker struct {
	translator Translator
	editor     *Editor
	retry      RetryPolicy
	log        *slog.Logger
}

func NewWorker(tr Translator, ed *Editor, retry RetryPolicy, log *slog.Logger) *Worker {
	return &Worker{translator: tr, editor: ed, retry: retry, log: log}
}

// Process snapshots the deck, translates the instruction and applies the
// resulting command.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "deck_id", job.DeckID)

	// Phase 1: Snapshot
	job.SetStatus(StatusTranslating, "snapshot")
	path, err := w.editor.Path(job.DeckID)
	if err != nil {
		log.Error("deck lookup failed", "error", err)
		job.Finish(nil, err)
		return
	}
	slides, err := deck.InspectFile(path)
	if err != nil {
		log.Error("snapshot failed", "error", err)
		job.Finish(nil, err)
		return
	}

	// Phase 2: Translate
	job.SetStatus(StatusTranslating, "translating")
	var cmd edit.Command
	err = w.retry.Do(ctx, func(attempt int) error {
		job.IncrAttempts()
		c, err := w.translator.Translate(ctx, job.Instruction, slides)
		if err != nil {
			if IsRetryable(err) {
				log.Warn("retryable translation error", "attempt", attempt, "error", err)
			}
			return err
		}
		cmd = c
		return nil
	})
	if err != nil {
		log.Error("translation failed", "error", err)
		job.Finish(nil, err)
		return
	}
	job.SetCommand(cmd)
	log.Info("instruction translated", "command", cmd.String())

	// Phase 3: Apply
	job.SetStatus(StatusApplying, "applying")
	res, err := w.editor.Apply(ctx, EditRequest{
		DeckID:      job.DeckID,
		Source:      journal.SourceInstruction,
		Instruction: job.Instruction,
		Command:     cmd,
	})
	if err != nil {
		log.Error("apply failed", "error", err)
		job.Finish(nil, err)
		return
	}
	job.Finish(&res, nil)
	log.Info("job finished", "status", job.Snapshot().Status, "replacements", res.Replacements)
}
