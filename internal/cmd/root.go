// Package cmd holds the deckedit command line.
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckedit/internal/config"
)

var Version = "0.1.0"

type rootOptions struct {
	configFile string
	verbose    bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "deckedit",
		Version:       Version,
		Short:         "Edit PowerPoint decks with structured commands or plain language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newSlidesCmd(opts))
	root.AddCommand(newEditCmd(opts))
	root.AddCommand(newAskCmd(opts))
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) load() (config.Config, error) {
	return config.Load(o.configFile)
}

// cliLogger logs to stderr in text form when verbose, else discards.
func (o *rootOptions) cliLogger(c *cobra.Command) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(c.ErrOrStderr(), nil))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
