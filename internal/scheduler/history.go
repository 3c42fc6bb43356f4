package scheduler

import "errors"

var ErrNothingToUndo = errors.New("nothing to undo")
var ErrNothingToRedo = errors.New("nothing to redo")

// HistoryDepth is how many undo steps a room keeps.
const HistoryDepth = 50

// History is a bounded undo/redo stack of room copies. It is not safe for
// concurrent use; the lobby actor owns one per room.
type History struct {
	undo  []Room
	redo  []Room
	depth int
}

func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = HistoryDepth
	}
	return &History{depth: depth}
}

// Record saves prev, the room as it was before a change. Any redo future is
// discarded.
func (h *History) Record(prev Room) {
	h.undo = append(h.undo, prev.Clone())
	if len(h.undo) > h.depth {
		h.undo = h.undo[len(h.undo)-h.depth:]
	}
	h.redo = nil
}

// Undo returns the room before the last change and saves cur for Redo.
func (h *History) Undo(cur Room) (Room, error) {
	if len(h.undo) == 0 {
		return cur, ErrNothingToUndo
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, cur.Clone())
	return prev, nil
}

// Redo reapplies the last undone change and saves cur for Undo.
func (h *History) Redo(cur Room) (Room, error) {
	if len(h.redo) == 0 {
		return cur, ErrNothingToRedo
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, cur.Clone())
	return next, nil
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo, h.redo = nil, nil
}
