package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/deckedit/internal/deck"
)

func newSlidesCmd(opts *rootOptions) *cobra.Command {
	var format string
	c := &cobra.Command{
		Use:   "slides <deck.pptx>",
		Short: "Print the text and background of every slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			slides, err := deck.InspectFile(args[0])
			if err != nil {
				return err
			}
			title := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			out := c.OutOrStdout()
			switch format {
			case "json":
				return printJSON(out, slides)
			case "md", "markdown":
				_, err := io.WriteString(out, deck.Outline(title, slides))
				return err
			case "html":
				html, err := deck.OutlineHTML(title, slides)
				if err != nil {
					return err
				}
				_, err = io.WriteString(out, html)
				return err
			}
			return fmt.Errorf("unknown format %q (want json, md or html)", format)
		},
	}
	c.Flags().StringVarP(&format, "format", "f", "md", "output format: json, md or html")
	return c
}
