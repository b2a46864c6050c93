package translate

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/deckedit/internal/deck"
	"github.com/dgallion1/deckedit/internal/edit"
)

// UntranslatableError means the model could not map the instruction onto a
// supported command.
type UntranslatableError struct {
	Reason string
}

func (e *UntranslatableError) Error() string {
	return "instruction not translatable: " + e.Reason
}

type modelReply struct {
	edit.Command
	Error string `json:"error"`
}

// ParseCommand decodes the model's reply, optionally fenced in a code
// block, and checks it against the slides it was shown.
func ParseCommand(text string, slides []deck.SlideText) (edit.Command, error) {
	text = stripCodeBlock(text)

	var reply modelReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return edit.Command{}, fmt.Errorf("parse command json: %w (raw: %s)", err, truncate(text, 200))
	}
	if reply.Error != "" {
		return edit.Command{}, &UntranslatableError{Reason: reply.Error}
	}
	cmd := reply.Command
	if err := ValidateCommand(&cmd, slides); err != nil {
		return edit.Command{}, err
	}
	return cmd, nil
}

// ValidateCommand checks cmd and normalizes its colour. The slide must be
// one of slides when slides is non-empty.
func ValidateCommand(cmd *edit.Command, slides []deck.SlideText) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if cmd.Action == edit.ActionChangeBG {
		hex, _ := edit.NormalizeColor(cmd.Color)
		cmd.Color = hex
	}
	if len(slides) == 0 {
		return nil
	}
	for _, s := range slides {
		if s.Number == cmd.Slide {
			return nil
		}
	}
	return &edit.SlideNotFoundError{Slide: cmd.Slide}
}
