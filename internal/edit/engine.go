// Package edit applies structured edit commands to the slides of a
// presentation package.
package edit

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/dgallion1/deckedit/internal/pptx"
	"github.com/dgallion1/deckedit/internal/xmltree"
)

// Engine applies commands to presentation files on disk. Edits to the same
// file are serialized; edits to different files run independently.
type Engine struct {
	log *slog.Logger

	mu    sync.Mutex
	locks map[string]*docLock
}

type docLock struct {
	mu   sync.Mutex
	refs int
}

func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		log:   log,
		locks: make(map[string]*docLock),
	}
}

func (e *Engine) lock(path string) func() {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	e.mu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &docLock{}
		e.locks[key] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, key)
		}
		e.mu.Unlock()
	}
}

// Apply runs cmd against the presentation at path: load the slide part,
// parse it, mutate it, serialize it and save the package. The file is
// written once, at the end, and only if every earlier step succeeded.
//
// An update_text that matches nothing succeeds with Result.Matched false
// and leaves the file as it was.
func (e *Engine) Apply(ctx context.Context, path string, cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, err
	}
	unlock := e.lock(path)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	pkg, err := pptx.Open(path)
	if err != nil {
		return Result{}, err
	}
	res, changed, err := ApplyToPackage(pkg, cmd)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		e.log.Info("edit matched nothing", "path", path, "command", cmd.String())
		return res, nil
	}
	if err := pkg.Save(path); err != nil {
		return Result{}, fmt.Errorf("save package: %w", err)
	}
	e.log.Info("edit applied", "path", path, "command", cmd.String(), "replacements", res.Replacements)
	return res, nil
}

// ApplyToPackage mutates the slide named by cmd inside pkg without saving.
// changed reports whether the slide entry was replaced.
func ApplyToPackage(pkg *pptx.Package, cmd Command) (res Result, changed bool, err error) {
	if err := cmd.Validate(); err != nil {
		return Result{}, false, err
	}
	if !pkg.HasSlide(cmd.Slide) {
		return Result{}, false, &SlideNotFoundError{Slide: cmd.Slide}
	}
	name := pptx.SlideEntry(cmd.Slide)
	data, err := pkg.Entry(name)
	if err != nil {
		return Result{}, false, err
	}
	root, err := xmltree.Parse(data)
	if err != nil {
		return Result{}, false, fmt.Errorf("slide %d: %w", cmd.Slide, err)
	}

	res = Result{Action: cmd.Action, Slide: cmd.Slide}
	switch cmd.Action {
	case ActionUpdateText:
		n, err := ReplaceText(root, cmd.OldText, cmd.NewText)
		if err != nil {
			return Result{}, false, err
		}
		res.Replacements = n
		res.Matched = n > 0
	case ActionChangeBG:
		hex, err := SetBackground(root, cmd.Color)
		if err != nil {
			return Result{}, false, err
		}
		res.Color = hex
		res.Matched = true
	default:
		return Result{}, false, &UnknownActionError{Action: string(cmd.Action)}
	}

	if !res.Matched {
		return res, false, nil
	}
	pkg.Put(name, xmltree.Serialize(root))
	return res, true, nil
}
