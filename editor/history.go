/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package editor

// snapshot is the content of a file before a mutation. existed is false when
// the file did not exist at that point, so undo removes it again.
type snapshot struct {
	content string
	existed bool
}

// history is a fixed-capacity FIFO ring of snapshots. Pushing onto a full ring
// evicts the oldest entry.
type history struct {
	buf   []snapshot
	start int // index of the oldest entry
	size  int
}

func newHistory(capacity int) *history {
	if capacity < 1 {
		capacity = 1
	}
	return &history{buf: make([]snapshot, capacity)}
}

// push appends s and reports whether the oldest entry was evicted
func (h *history) push(s snapshot) bool {
	capacity := len(h.buf)
	if h.size < capacity {
		h.buf[(h.start+h.size)%capacity] = s
		h.size++
		return false
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % capacity
	return true
}

// pop removes and returns the newest entry
func (h *history) pop() (snapshot, bool) {
	if h.size == 0 {
		return snapshot{}, false
	}
	idx := (h.start + h.size - 1) % len(h.buf)
	s := h.buf[idx]
	h.buf[idx] = snapshot{}
	h.size--
	return s, true
}

func (h *history) len() int {
	return h.size
}
