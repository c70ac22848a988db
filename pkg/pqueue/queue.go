package pqueue

import (
	"cmp"
	"sort"
)

// WithCap bounds the queue. Once full, a push only succeeds when it beats
// the last element, which is evicted.
func WithCap(size uint) Option {
	return func(c *config) {
		c.cap = int(size)
	}
}

type Option func(*config)

type config struct {
	cap int
}

type item[V any, P cmp.Ordered] struct {
	value V
	prior P
}

func New[V any, P cmp.Ordered](opts ...Option) *Queue[V, P] {
	c := config{cap: -1}
	for _, opt := range opts {
		opt(&c)
	}
	q := &Queue[V, P]{cap: c.cap}
	if c.cap > 0 {
		q.items = make([]item[V, P], 0, c.cap)
	}
	return q
}

// Queue keeps values sorted by ascending priority. Equal priorities keep
// insertion order.
type Queue[V any, P cmp.Ordered] struct {
	cap   int
	items []item[V, P]
}

// Push inserts val and reports whether it was retained.
func (q *Queue[V, P]) Push(val V, priority P) bool {
	if q.cap == 0 {
		return false
	}
	if q.Full() && priority >= q.items[len(q.items)-1].prior {
		return false
	}
	i := sort.Search(len(q.items), func(i int) bool {
		return priority < q.items[i].prior
	})
	if q.Full() {
		q.items = q.items[:len(q.items)-1]
	}
	q.items = append(q.items, item[V, P]{})
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = item[V, P]{value: val, prior: priority}
	return true
}

// Full reports whether a bounded queue holds cap elements.
func (q *Queue[V, P]) Full() bool { return q.cap >= 0 && len(q.items) >= q.cap }

// Last returns the priority of the last element.
func (q *Queue[V, P]) Last() (P, bool) {
	var zero P
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[len(q.items)-1].prior, true
}

func (q *Queue[V, P]) Len() int { return len(q.items) }

func (q *Queue[V, P]) Seek(idx int) (V, P) {
	it := q.items[idx]
	return it.value, it.prior
}
