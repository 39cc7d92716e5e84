package log

import (
	"fmt"
	"io"
	"sync"
)

// CircularBuffer is a thread-safe circular buffer that implements [io.Writer].
// It stores a fixed number of recent entries, automatically overwriting the
// oldest entries when the buffer is full.
//
// It is used to hold log records emitted while the live task display owns the
// terminal, so they can be flushed afterwards without corrupting the frame.
type CircularBuffer struct {
	entries  [][]byte
	capacity int
	size     int
	head     int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the specified capacity.
// The capacity determines the maximum number of entries that can be stored.
func NewCircularBuffer(capacity int) *CircularBuffer {
	if capacity <= 0 {
		capacity = 100 // Default capacity.
	}

	return &CircularBuffer{
		entries:  make([][]byte, capacity),
		capacity: capacity,
	}
}

// Write implements [io.Writer]. It stores the provided data as a new entry,
// overwriting the oldest entry when the buffer is full. The data is copied to
// prevent external modifications.
func (cb *CircularBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	entry := make([]byte, len(p))
	copy(entry, p)

	cb.entries[cb.head] = entry
	cb.head = (cb.head + 1) % cb.capacity

	if cb.size < cb.capacity {
		cb.size++
	}

	return len(p), nil
}

// Entries returns a copy of all current entries in chronological order
// (oldest first). The returned slices are safe to modify.
func (cb *CircularBuffer) Entries() [][]byte {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	if cb.size == 0 {
		return nil
	}

	result := make([][]byte, 0, cb.size)

	start := 0
	if cb.size == cb.capacity {
		start = cb.head
	}

	for i := range cb.size {
		src := cb.entries[(start+i)%cb.capacity]
		if src == nil {
			continue
		}

		entry := make([]byte, len(src))
		copy(entry, src)

		result = append(result, entry)
	}

	return result
}

// Size returns the current number of entries in the buffer.
func (cb *CircularBuffer) Size() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.size
}

// Capacity returns the maximum number of entries the buffer can hold.
func (cb *CircularBuffer) Capacity() int {
	return cb.capacity
}

// WriteTo writes all current entries to the provided writer in chronological
// order. It implements [io.WriterTo] for efficient bulk transfers.
func (cb *CircularBuffer) WriteTo(w io.Writer) (int64, error) {
	entries := cb.Entries()

	var total int64

	for _, entry := range entries {
		written, writeErr := w.Write(entry)
		total += int64(written)

		if writeErr != nil {
			return total, fmt.Errorf("writing entry: %w", writeErr)
		}
	}

	return total, nil
}
