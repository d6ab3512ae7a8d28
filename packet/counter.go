package packet

import "sync/atomic"

// RequestCounter supplies the monotonically increasing ids stamped onto
// request frames.
type RequestCounter interface {
	// Next returns the next request id.
	Next() uint16
}

// SimpleCounter is a plain uint16-backed counter for single-goroutine
// producers.
type SimpleCounter struct {
	value uint16
}

// NewSimpleCounter creates a counter starting at zero.
func NewSimpleCounter() *SimpleCounter {
	return &SimpleCounter{}
}

// Next returns the next request id.
func (c *SimpleCounter) Next() uint16 {
	c.value++
	return c.value
}

// AtomicCounter is safe for concurrent producers sharing one id space.
// Unlike SimpleCounter it issues 0 as its first id, matching the
// fetch-and-increment semantics peers expect from concurrent clients.
type AtomicCounter struct {
	value atomic.Uint32
}

// NewAtomicCounter creates a counter whose first id is 0.
func NewAtomicCounter() *AtomicCounter {
	return &AtomicCounter{}
}

// Next returns the next request id.
func (c *AtomicCounter) Next() uint16 {
	return uint16(c.value.Add(1) - 1)
}

// FixedCounter always yields the same id. Useful for tests and for
// callers that manage ids themselves.
type FixedCounter uint16

// Next returns the fixed id.
func (c FixedCounter) Next() uint16 {
	return uint16(c)
}
