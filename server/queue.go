package server

// queue is the FIFO matchmaking queue. Pairing follows insertion order and a
// connection is never paired with itself; re-queueing is a no-op.
type queue struct {
	waiting []*client
}

func (q *queue) add(c *client) {
	for _, w := range q.waiting {
		if w == c {
			return
		}
	}
	q.waiting = append(q.waiting, c)
}

func (q *queue) remove(c *client) {
	for i, w := range q.waiting {
		if w == c {
			q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
			return
		}
	}
}

func (q *queue) len() int {
	return len(q.waiting)
}

// takePair pops the two oldest waiters, if there are at least two.
func (q *queue) takePair() (a, b *client, ok bool) {
	if len(q.waiting) < 2 {
		return nil, nil, false
	}
	a, b = q.waiting[0], q.waiting[1]
	q.waiting = q.waiting[2:]
	return a, b, true
}
