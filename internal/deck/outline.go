package deck

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Outline renders slides as Markdown: a heading per slide and a bullet per
// paragraph.
func Outline(title string, slides []SlideText) string {
	var sb strings.Builder
	if title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(title))
	}
	for _, s := range slides {
		fmt.Fprintf(&sb, "## Slide %d\n\n", s.Number)
		if s.Background != "" {
			fmt.Fprintf(&sb, "_Background: #%s_\n\n", s.Background)
		}
		if len(s.Texts) == 0 {
			sb.WriteString("_(no text)_\n\n")
			continue
		}
		for _, t := range s.Texts {
			line := strings.ReplaceAll(escapeMarkdown(t), "\n", " ")
			fmt.Fprintf(&sb, "- %s\n", line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// OutlineHTML renders the Outline Markdown to HTML. Raw HTML in slide text
// is escaped, never passed through.
func OutlineHTML(title string, slides []SlideText) (string, error) {
	md := goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Outline(title, slides)), &buf); err != nil {
		return "", fmt.Errorf("render outline: %w", err)
	}
	return buf.String(), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`,
	"<", `\<`, ">", `\>`, "#", `\#`, "|", `\|`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
