package vcedit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
)

// Snapshot is one serialized state of the document.
type Snapshot struct {
	ID     string
	Label  string
	Markup string
	Time   time.Time
}

// History is a bounded undo/redo log of document snapshots.
//
// Snapshots live in one list with a current index. Committing truncates
// everything after the index, appends, and evicts the oldest entry once
// the capacity is exceeded. Undo and redo only move the index and restore
// the document; they never change the list.
type History struct {
	mu sync.Mutex

	entries  []Snapshot
	index    int
	capacity int

	// snapshot captures the current document; restore replaces it
	// without committing.
	snapshot func() (string, error)
	restore  func(markup, label string) error

	debounced  func(f func())
	post       func(func())
	pending    bool
	pendingKey string
	// ready is set once the debounce delay has passed without a post
	// function; the edit is committed by the next call on the owner thread.
	ready bool

	log *slog.Logger
}

// NewHistory creates an empty history. Deferred commits run through post on
// the host event loop. Without post the timer goroutine never touches the
// document: it marks the edit ready and the next Settle, Flush, Schedule,
// Undo or Redo commits it.
func NewHistory(capacity int, delay time.Duration, snapshot func() (string, error), restore func(markup, label string) error, post func(func()), log *slog.Logger) *History {
	if capacity <= 0 {
		capacity = DefaultConfig().HistoryCapacity
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := &History{
		index:     -1,
		capacity:  capacity,
		snapshot:  snapshot,
		restore:   restore,
		debounced: debounce.New(delay),
		post:      post,
		log:       log,
	}
	if h.post == nil {
		h.post = func(func()) { h.markReady() }
	}
	return h
}

// Reset discards every entry and records markup as the only snapshot.
func (h *History) Reset(markup string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cancelLocked()
	h.entries = []Snapshot{newSnapshot("load", markup)}
	h.index = 0
}

// Commit records markup as the newest snapshot. A snapshot identical to
// the current one is suppressed; Commit reports whether one was added.
func (h *History) Commit(label, markup string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.commitLocked(label, markup)
}

func (h *History) commitLocked(label, markup string) bool {
	if h.index >= 0 && h.entries[h.index].Markup == markup {
		return false
	}
	h.entries = append(h.entries[:h.index+1], newSnapshot(label, markup))

	// Enforce capacity
	if len(h.entries) > h.capacity {
		excess := len(h.entries) - h.capacity
		h.entries = append([]Snapshot(nil), h.entries[excess:]...)
	}
	h.index = len(h.entries) - 1
	h.log.Debug("history commit", slog.String("label", label), slog.Int("index", h.index))
	return true
}

func newSnapshot(label, markup string) Snapshot {
	return Snapshot{
		ID:     uuid.NewString(),
		Label:  label,
		Markup: markup,
		Time:   time.Now(),
	}
}

// CommitNow flushes any pending edit and then captures the document.
func (h *History) CommitNow(label string) bool {
	h.Flush()
	return h.capture(label)
}

func (h *History) capture(label string) bool {
	markup, err := h.snapshot()
	if err != nil {
		h.log.Warn("history snapshot failed", slog.String("label", label), slog.Any("err", err))
		return false
	}
	return h.Commit(label, markup)
}

// Schedule arms the debounce timer for an edit of the field named key.
// Further edits of the same key re-arm it; an edit of another key first
// commits the pending one.
func (h *History) Schedule(key string) {
	h.FlushExcept(key)
	h.mu.Lock()
	h.pending = true
	h.pendingKey = key
	h.debounced(func() { h.post(h.fire) })
	h.mu.Unlock()
}

func (h *History) markReady() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending {
		h.ready = true
	}
}

// Settle commits a pending edit whose debounce delay has already passed.
func (h *History) Settle() bool {
	h.mu.Lock()
	ready := h.pending && h.ready
	h.mu.Unlock()
	if !ready {
		return false
	}
	return h.Flush()
}

func (h *History) fire() {
	h.mu.Lock()
	if !h.pending {
		h.mu.Unlock()
		return
	}
	key := h.pendingKey
	h.pending = false
	h.pendingKey = ""
	h.ready = false
	h.mu.Unlock()
	h.capture(key)
}

// Flush commits a pending debounced edit immediately.
func (h *History) Flush() bool {
	h.mu.Lock()
	if !h.pending {
		h.mu.Unlock()
		return false
	}
	key := h.pendingKey
	h.cancelLocked()
	h.mu.Unlock()
	return h.capture(key)
}

// FlushExcept commits a pending edit unless it belongs to key and is still
// within its debounce delay. Callers about to edit key run it before
// mutating, so a closed entry does not absorb the new edit.
func (h *History) FlushExcept(key string) bool {
	h.mu.Lock()
	other := h.pending && (h.pendingKey != key || h.ready)
	h.mu.Unlock()
	if !other {
		return false
	}
	return h.Flush()
}

// Pending reports whether a debounced edit is waiting.
func (h *History) Pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

func (h *History) cancelLocked() {
	if h.pending {
		h.debounced(func() {})
	}
	h.pending = false
	h.pendingKey = ""
	h.ready = false
}

// Undo flushes pending edits, steps back one snapshot and restores it.
func (h *History) Undo() bool {
	return h.step(-1, "undo")
}

// Redo steps forward one snapshot and restores it.
func (h *History) Redo() bool {
	return h.step(+1, "redo")
}

// step moves the index first so that listeners notified during restore
// see the new CanUndo/CanRedo, and moves it back if restore fails. The
// lock is not held during restore.
func (h *History) step(delta int, label string) bool {
	h.Flush()

	h.mu.Lock()
	target := h.index + delta
	if h.index < 0 || target < 0 || target >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	markup := h.entries[target].Markup
	h.index = target
	h.mu.Unlock()

	if err := h.restore(markup, label); err != nil {
		h.mu.Lock()
		h.index = target - delta
		h.mu.Unlock()
		h.log.Warn("history restore failed", slog.String("op", label), slog.Any("err", err))
		return false
	}
	h.log.Debug(label, slog.Int("index", target))
	return true
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index < len(h.entries)-1
}

// Len returns the number of snapshots held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Index returns the current snapshot index, -1 when empty.
func (h *History) Index() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index
}

// Current returns the snapshot at the current index.
func (h *History) Current() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return Snapshot{}, false
	}
	return h.entries[h.index], true
}

// Entries returns a copy of the snapshot list.
func (h *History) Entries() []Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Snapshot(nil), h.entries...)
}
