// Package capture provides output retention for supervised sessions.
//
// RingBuffer keeps the most recent N bytes of a session's captured
// output. Older data is overwritten as new output arrives, so memory
// stays bounded no matter how long a session runs, and the scanner only
// ever needs the tail anyway.
package capture

import "sync"

// RingBuffer is a thread-safe circular buffer over captured output.
// It implements io.Writer. Writes never fail; when the buffer is full
// the oldest bytes are overwritten.
type RingBuffer struct {
	mu    sync.RWMutex
	data  []byte
	size  int
	start int
	end   int
	full  bool
}

// NewRingBuffer creates a ring buffer retaining the most recent size
// bytes of written data.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends data, overwriting the oldest bytes when full.
// Always returns len(p), nil.
func (r *RingBuffer) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = len(p)

	// A write larger than the buffer reduces to its trailing slice.
	if n >= r.size {
		copy(r.data, p[n-r.size:])
		r.start = 0
		r.end = 0
		r.full = true
		return n, nil
	}

	for _, b := range p {
		r.data[r.end] = b
		r.end = (r.end + 1) % r.size
		if r.full {
			r.start = (r.start + 1) % r.size
		}
		if r.end == r.start {
			r.full = true
		}
	}
	return n, nil
}

// Bytes returns the buffered data, oldest first.
func (r *RingBuffer) Bytes() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full && r.start == r.end {
		return nil
	}

	out := make([]byte, 0, r.lenLocked())
	if r.full || r.end < r.start {
		out = append(out, r.data[r.start:]...)
		out = append(out, r.data[:r.end]...)
	} else {
		out = append(out, r.data[r.start:r.end]...)
	}
	return out
}

// String returns the buffered data as a string, oldest first.
func (r *RingBuffer) String() string {
	return string(r.Bytes())
}

// Len returns the number of buffered bytes.
func (r *RingBuffer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lenLocked()
}

func (r *RingBuffer) lenLocked() int {
	if r.full {
		return r.size
	}
	if r.end >= r.start {
		return r.end - r.start
	}
	return r.size - r.start + r.end
}

// Reset discards all buffered data.
func (r *RingBuffer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start = 0
	r.end = 0
	r.full = false
}

// Tail returns up to the last n bytes of buffered data as a string.
func (r *RingBuffer) Tail(n int) string {
	b := r.Bytes()
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
