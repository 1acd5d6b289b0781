package engine

// Clock stamps trace events with strictly increasing sequence numbers.
// Trace order never depends on wall-clock time, so two compilations of the
// same program produce identical traces.
type Clock struct {
	seq int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	c.seq++
	return c.seq
}
