package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckedit/internal/deck"
	"github.com/dgallion1/deckedit/internal/edit"
	"github.com/dgallion1/deckedit/internal/journal"
	"github.com/dgallion1/deckedit/internal/pipeline"
	"github.com/dgallion1/deckedit/internal/translate"
)

var errNoAPIKey = errors.New("ANTHROPIC_API_KEY is required")

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		dryRun      bool
		journalPath string
		baseURL     string
	)
	c := &cobra.Command{
		Use:   "ask <deck.pptx> <instruction>",
		Short: "Translate a plain-language instruction into a command and apply it",
		Args:  cobra.ExactArgs(2),
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.AnthropicAPIKey == "" {
				return errNoAPIKey
			}
			log := opts.cliLogger(c)
			path := absPath(args[0])

			slides, err := deck.InspectFile(path)
			if err != nil {
				return err
			}
			claude := translate.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
			if baseURL != "" {
				claude = claude.WithBaseURL(baseURL)
			}
			defer claude.Close()

			var cmd edit.Command
			err = pipeline.DefaultRetry.Do(ctx, func(attempt int) error {
				cmd, err = claude.Translate(ctx, args[1], slides)
				if err != nil && pipeline.IsRetryable(err) {
					log.Warn("retryable translation error", "attempt", attempt, "error", err)
				}
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.ErrOrStderr(), "command:", cmd.String())
			if dryRun {
				return printJSON(c.OutOrStdout(), cmd)
			}

			editor, closeFn, err := localEditor(journalPath, log)
			if err != nil {
				return err
			}
			defer closeFn()
			res, err := editor.Apply(ctx, pipeline.EditRequest{
				DeckID:      path,
				Source:      journal.SourceInstruction,
				Instruction: args[1],
				Command:     cmd,
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
	c.Flags().BoolVar(&dryRun, "dry-run", false, "print the command without applying it")
	c.Flags().StringVar(&journalPath, "journal", "", "record the edit in this journal database")
	c.Flags().StringVar(&baseURL, "api-url", "", "override the Anthropic API base URL")
	return c
}
