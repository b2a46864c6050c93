package edit

import (
	"errors"
	"fmt"

	"github.com/dgallion1/deckedit/internal/xmltree"
)

// ErrMalformedDocument is matched by errors.Is when a slide part is not
// well-formed XML.
var ErrMalformedDocument = xmltree.ErrMalformed

// SlideNotFoundError means the package has no entry for the slide.
type SlideNotFoundError struct {
	Slide int
}

func (e *SlideNotFoundError) Error() string {
	return fmt.Sprintf("slide %d not found", e.Slide)
}

// UnknownActionError means the command action is outside the supported set.
type UnknownActionError struct {
	Action string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Action)
}

// InvalidCommandError means a known action is missing or has bad arguments.
type InvalidCommandError struct {
	Reason string
}

func (e *InvalidCommandError) Error() string {
	return "invalid command: " + e.Reason
}

// IsSlideNotFound reports whether err is a SlideNotFoundError.
func IsSlideNotFound(err error) bool {
	var e *SlideNotFoundError
	return errors.As(err, &e)
}

// IsBadCommand reports whether err rejects the command itself, either an
// unknown action or invalid arguments.
func IsBadCommand(err error) bool {
	var ua *UnknownActionError
	var ic *InvalidCommandError
	return errors.As(err, &ua) || errors.As(err, &ic)
}
