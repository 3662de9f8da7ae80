// Package editor ties a canvas surface, its undo/redo history, the drawing
// tool state and the pattern metadata form into one editor session.
package editor

import (
	"fmt"
	"sync"
	"time"

	"pattern-studio/core"
	"pattern-studio/editor/canvas"
	"pattern-studio/editor/history"
	"pattern-studio/editor/tools"
)

type (
	// State is a read-only summary of an editor, safe to serialise.
	State struct {
		ID        string               `json:"id"`
		Tool      tools.Tool           `json:"tool"`
		BrushSize int                  `json:"brushSize"`
		Color     string               `json:"color"`
		Metadata  core.PatternMetadata `json:"metadata"`
		UndoDepth int                  `json:"undoDepth"`
		RedoDepth int                  `json:"redoDepth"`
		CanUndo   bool                 `json:"canUndo"`
		CanRedo   bool                 `json:"canRedo"`
		Stroking  bool                 `json:"stroking"`
		CreatedAt time.Time            `json:"createdAt"`
		UpdatedAt time.Time            `json:"updatedAt"`
	}

	Options struct {
		// HistoryLimit bounds the undo stack; zero keeps it unbounded.
		HistoryLimit int
		// Initial, when set, is painted onto the surface and becomes the undo floor.
		Initial *core.Snapshot
		// OnChange is called after every state change, outside the editor lock.
		OnChange func(State)
	}

	// Editor is one open pattern editor. Pointer events are expected from a
	// single pointer; the mutex only guards against overlapping HTTP requests.
	Editor struct {
		ID        string
		Owner     string
		CreatedAt time.Time

		mu        sync.Mutex
		surface   *canvas.Surface
		history   *history.History
		tool      tools.Config
		meta      core.PatternMetadata
		updatedAt time.Time
		onChange  func(State)
	}
)

func New(id, owner string, opts Options) (*Editor, error) {
	surface := canvas.NewSurface()

	var initial core.Snapshot
	if opts.Initial != nil {
		if err := surface.RestoreFrom(*opts.Initial); err != nil {
			return nil, fmt.Errorf("loading initial canvas: %w", err)
		}
		initial = *opts.Initial
	} else {
		blank, err := surface.ExportSnapshot()
		if err != nil {
			return nil, err
		}
		initial = blank
	}

	now := time.Now()
	return &Editor{
		ID:        id,
		Owner:     owner,
		CreatedAt: now,
		surface:   surface,
		history:   history.New(initial, surface, history.WithLimit(opts.HistoryLimit)),
		tool:      tools.Default(),
		meta:      core.DefaultMetadata(),
		updatedAt: now,
		onChange:  opts.OnChange,
	}, nil
}

// update runs fn under the lock and, when fn reports a change, notifies the
// OnChange hook after the lock is released.
func (e *Editor) update(fn func() (bool, error)) error {
	changed, st, err := func() (bool, State, error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		changed, err := fn()
		if changed {
			e.updatedAt = time.Now()
		}
		return changed, e.stateLocked(), err
	}()

	if changed && e.onChange != nil {
		e.onChange(st)
	}
	return err
}

// PointerDown begins a stroke at p.
func (e *Editor) PointerDown(p core.Point) error {
	return e.update(func() (bool, error) {
		if e.surface.Stroking() {
			return false, nil
		}
		e.surface.BeginStroke(p)
		return true, nil
	})
}

// PointerMove paints towards p with the current tool, if a stroke is active.
func (e *Editor) PointerMove(p core.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.ExtendStroke(p, e.tool)
}

// PointerUp finishes the active stroke and records it. A stray pointer-up
// records nothing.
func (e *Editor) PointerUp() error {
	return e.update(func() (bool, error) {
		if !e.surface.EndStroke() {
			return false, nil
		}
		return true, e.recordLocked()
	})
}

// PointerLeave behaves like PointerUp.
func (e *Editor) PointerLeave() error {
	return e.PointerUp()
}

// Clear blanks the surface and always records a snapshot.
func (e *Editor) Clear() error {
	return e.update(func() (bool, error) {
		e.surface.Clear()
		return true, e.recordLocked()
	})
}

// Undo steps back one snapshot. At the initial snapshot it does nothing.
func (e *Editor) Undo() (bool, error) {
	var ok bool
	err := e.update(func() (bool, error) {
		var err error
		ok, err = e.history.Undo()
		return ok, err
	})
	return ok, err
}

// Redo reapplies the last undone snapshot, if any.
func (e *Editor) Redo() (bool, error) {
	var ok bool
	err := e.update(func() (bool, error) {
		var err error
		ok, err = e.history.Redo()
		return ok, err
	})
	return ok, err
}

// Reset clears the canvas (recorded like Clear) and empties the metadata form.
func (e *Editor) Reset() error {
	return e.update(func() (bool, error) {
		e.meta = core.DefaultMetadata()
		e.surface.Clear()
		return true, e.recordLocked()
	})
}

func (e *Editor) SetTool(cfg tools.Config) {
	_ = e.update(func() (bool, error) {
		e.tool = cfg
		return true, nil
	})
}

func (e *Editor) Tool() tools.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tool
}

func (e *Editor) SetMetadata(meta core.PatternMetadata) {
	_ = e.update(func() (bool, error) {
		e.meta = meta
		return true, nil
	})
}

func (e *Editor) Metadata() core.PatternMetadata {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta
}

// Snapshot encodes the live surface, including any stroke in progress.
func (e *Editor) Snapshot() (core.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.ExportSnapshot()
}

// History exposes copies of the undo and redo stacks.
func (e *Editor) History() (undo, redo []core.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.UndoStack(), e.history.RedoStack()
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) recordLocked() error {
	snap, err := e.surface.ExportSnapshot()
	if err != nil {
		return err
	}
	e.history.Record(snap)
	return nil
}

func (e *Editor) stateLocked() State {
	return State{
		ID:        e.ID,
		Tool:      e.tool.Tool,
		BrushSize: e.tool.BrushSize,
		Color:     e.tool.HexColor(),
		Metadata:  e.meta,
		UndoDepth: e.history.UndoLen(),
		RedoDepth: e.history.RedoLen(),
		CanUndo:   e.history.CanUndo(),
		CanRedo:   e.history.CanRedo(),
		Stroking:  e.surface.Stroking(),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.updatedAt,
	}
}
