package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
	"github.com/dgallion1/deckedit/internal/pipeline"
)

// fileLocator treats the deck id as a path on disk.
type fileLocator struct{}

func (fileLocator) Path(id string) (string, error) {
	if _, err := os.Stat(id); err != nil {
		return "", err
	}
	return id, nil
}

type editOptions struct {
	action  string
	slide   int
	oldText string
	newText string
	color   string
	journal string
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	eo := &editOptions{}
	c := &cobra.Command{
		Use:   "edit <deck.pptx>",
		Short: "Apply one structured command to a deck in place",
		Example: `  deckedit edit talk.pptx --action update_text --slide 1 --old "Q3" --new "Q4"
  deckedit edit talk.pptx --action change_bg --slide 2 --color 1F4E79`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cmd := edit.Command{
				Action:  edit.Action(eo.action),
				Slide:   eo.slide,
				OldText: eo.oldText,
				NewText: eo.newText,
				Color:   eo.color,
			}
			log := opts.cliLogger(c)
			editor, closeFn, err := localEditor(eo.journal, log)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := editor.Apply(c.Context(), pipeline.EditRequest{
				DeckID:  absPath(args[0]),
				Source:  journal.SourceCLI,
				Command: cmd,
			})
			if err != nil {
				return err
			}
			if !res.Matched {
				fmt.Fprintln(c.ErrOrStderr(), "warning: no text matched; the deck was not changed")
			}
			return printJSON(c.OutOrStdout(), res)
		},
	}
	f := c.Flags()
	f.StringVar(&eo.action, "action", "", "update_text or change_bg")
	f.IntVar(&eo.slide, "slide", 0, "1-based slide number")
	f.StringVar(&eo.oldText, "old", "", "text to replace (update_text)")
	f.StringVar(&eo.newText, "new", "", "replacement text (update_text)")
	f.StringVar(&eo.color, "color", "", "RRGGBB background colour (change_bg)")
	f.StringVar(&eo.journal, "journal", "", "record the edit in this journal database")
	c.MarkFlagRequired("action")
	c.MarkFlagRequired("slide")
	return c
}

// localEditor builds an editor over files on disk, journaling when
// journalPath is set.
func localEditor(journalPath string, log *slog.Logger) (*pipeline.Editor, func(), error) {
	closeFn := func() {}
	var rec pipeline.Recorder
	if journalPath != "" {
		j, err := journal.Open(journalPath)
		if err != nil {
			return nil, nil, err
		}
		rec = j
		closeFn = func() { j.Close() }
	}
	return pipeline.NewEditor(edit.NewEngine(log), fileLocator{}, rec, nil, log), closeFn, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
