package index

import "sync/atomic"

// gbTree double buffers an index: a rebuild fills the standby side and then
// flips state, so readers never see a partially built tree. The previous
// tree stays on the standby side until the next rebuild. Writers must be
// serialized by the caller.
type gbTree struct {
	sides [2]atomic.Pointer[Index]
	state atomic.Uint32
}

func (t *gbTree) active() *Index {
	return t.sides[t.state.Load()].Load()
}

func (t *gbTree) publish(idx *Index) {
	next := 1 - t.state.Load()
	t.sides[next].Store(idx)
	t.state.Store(next)
}
