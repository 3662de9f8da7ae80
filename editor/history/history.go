// Package history implements the undo/redo stacks of full-canvas snapshots.
package history

import (
	"pattern-studio/core"
)

// Restorer repaints a surface from a snapshot.
type Restorer interface {
	RestoreFrom(snap core.Snapshot) error
}

// History keeps two snapshot stacks. The undo stack always holds at least one
// entry, the floor, and its last entry is what the surface displays.
type History struct {
	surface Restorer
	limit   int
	undo    []core.Snapshot
	redo    []core.Snapshot // top of the stack is the last element
}

type Option func(*History)

// WithLimit bounds the undo stack to n entries, evicting the oldest ones.
// n <= 0 keeps the stack unbounded.
func WithLimit(n int) Option {
	return func(h *History) {
		h.limit = n
	}
}

func New(initial core.Snapshot, surface Restorer, opts ...Option) *History {
	h := &History{surface: surface}
	for _, opt := range opts {
		opt(h)
	}
	h.Reset(initial)
	return h
}

// Reset drops both stacks and starts over from initial.
func (h *History) Reset(initial core.Snapshot) {
	h.undo = []core.Snapshot{initial}
	h.redo = nil
}

// Record appends a snapshot taken after a completed action and discards
// everything that could have been redone.
func (h *History) Record(snap core.Snapshot) {
	h.undo = append(h.undo, snap)
	h.redo = nil
	if h.limit > 0 && len(h.undo) > h.limit {
		evicted := len(h.undo) - h.limit
		h.undo = append([]core.Snapshot(nil), h.undo[evicted:]...)
	}
}

// Undo steps back one snapshot. It reports false without error at the floor.
// A restore failure leaves both stacks untouched.
func (h *History) Undo() (bool, error) {
	if len(h.undo) <= 1 {
		return false, nil
	}
	if err := h.surface.RestoreFrom(h.undo[len(h.undo)-2]); err != nil {
		return false, err
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, last)
	return true, nil
}

// Redo reapplies the most recently undone snapshot. It reports false without
// error when there is nothing to redo.
func (h *History) Redo() (bool, error) {
	if len(h.redo) == 0 {
		return false, nil
	}
	next := h.redo[len(h.redo)-1]
	if err := h.surface.RestoreFrom(next); err != nil {
		return false, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, next)
	return true, nil
}

// Current is the snapshot the surface is expected to display.
func (h *History) Current() core.Snapshot {
	return h.undo[len(h.undo)-1]
}

func (h *History) UndoLen() int  { return len(h.undo) }
func (h *History) RedoLen() int  { return len(h.redo) }
func (h *History) CanUndo() bool { return len(h.undo) > 1 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoStack returns the undo entries, oldest first.
func (h *History) UndoStack() []core.Snapshot {
	return append([]core.Snapshot(nil), h.undo...)
}

// RedoStack returns the redo entries, next-to-redo first.
func (h *History) RedoStack() []core.Snapshot {
	out := make([]core.Snapshot, len(h.redo))
	for i, snap := range h.redo {
		out[len(h.redo)-1-i] = snap
	}
	return out
}
