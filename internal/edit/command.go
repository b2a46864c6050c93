package edit

import (
	"fmt"
	"strings"
)

// Action names the kind of edit a Command performs.
type Action string

const (
	ActionUpdateText Action = "update_text"
	ActionChangeBG   Action = "change_bg"
)

// Command is one structured edit against a single slide. Which fields are
// used depends on Action: update_text reads OldText and NewText, change_bg
// reads Color.
type Command struct {
	Action  Action `json:"action"`
	Slide   int    `json:"slide"`
	OldText string `json:"oldText,omitempty"`
	NewText string `json:"newText,omitempty"`
	Color   string `json:"color,omitempty"`
}

// UpdateText builds an update_text command.
func UpdateText(slide int, oldText, newText string) Command {
	return Command{Action: ActionUpdateText, Slide: slide, OldText: oldText, NewText: newText}
}

// ChangeBackground builds a change_bg command.
func ChangeBackground(slide int, color string) Command {
	return Command{Action: ActionChangeBG, Slide: slide, Color: color}
}

// Validate checks the command against the closed action set and the
// fields its action needs.
func (c Command) Validate() error {
	switch c.Action {
	case ActionUpdateText:
		if c.OldText == "" {
			return &InvalidCommandError{Reason: "oldText is required"}
		}
	case ActionChangeBG:
		if _, err := NormalizeColor(c.Color); err != nil {
			return err
		}
	default:
		return &UnknownActionError{Action: string(c.Action)}
	}
	if c.Slide < 1 {
		return &InvalidCommandError{Reason: fmt.Sprintf("slide must be >= 1, got %d", c.Slide)}
	}
	return nil
}

// String renders the command for logs.
func (c Command) String() string {
	switch c.Action {
	case ActionUpdateText:
		return fmt.Sprintf("update_text(slide=%d, %q -> %q)", c.Slide, c.OldText, c.NewText)
	case ActionChangeBG:
		return fmt.Sprintf("change_bg(slide=%d, %s)", c.Slide, c.Color)
	}
	return fmt.Sprintf("%s(slide=%d)", c.Action, c.Slide)
}

// NormalizeColor accepts six hex digits with an optional leading '#', in
// any case, and returns them uppercased without the '#'.
func NormalizeColor(s string) (string, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return "", &InvalidCommandError{Reason: fmt.Sprintf("color %q must be 6 hex digits", s)}
	}
	for i := 0; i < len(hex); i++ {
		c := hex[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return "", &InvalidCommandError{Reason: fmt.Sprintf("color %q must be 6 hex digits", s)}
		}
	}
	return strings.ToUpper(hex), nil
}

// Result reports what an applied command did.
type Result struct {
	Action       Action `json:"action"`
	Slide        int    `json:"slide"`
	Matched      bool   `json:"matched"`
	Replacements int    `json:"replacements"`
	Color        string `json:"color,omitempty"`
}
