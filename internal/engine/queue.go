package engine

// wakeQueue is the FIFO work-list of suspended instances whose blocking
// callee has finished. Finishing an instance only enqueues its waiters;
// Execute drains the queue, so resumption never nests inside another
// instance's resume loop.
type wakeQueue struct {
	items []*Instance
}

func newWakeQueue() *wakeQueue {
	return &wakeQueue{items: make([]*Instance, 0, 16)}
}

// Enqueue adds an instance to the back of the queue.
func (q *wakeQueue) Enqueue(inst *Instance) {
	q.items = append(q.items, inst)
}

// TryDequeue removes and returns the front instance.
// Returns (nil, false) if the queue is empty.
func (q *wakeQueue) TryDequeue() (*Instance, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	inst := q.items[0]

	// Nil out the slot so a finished instance can be collected.
	q.items[0] = nil
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return inst, true
}

