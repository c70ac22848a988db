package kdtree

import (
	"math/bits"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

const (
	insertionSortLen         = 12
	defaultParallelThreshold = 1 << 14
)

// Option configures tree construction.
type Option func(*buildOptions)

type buildOptions struct {
	workers   int
	threshold int
}

// WithParallel lets construction fork the two halves of large ranges onto
// at most workers goroutines. workers <= 0 means runtime.GOMAXPROCS(0).
// The resulting order is identical to a sequential build.
func WithParallel(workers int) Option {
	return func(o *buildOptions) {
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		o.workers = workers
	}
}

// WithParallelThreshold sets the minimum range length that is handed to
// another goroutine.
func WithParallelThreshold(n int) Option {
	return func(o *buildOptions) {
		if n > 1 {
			o.threshold = n
		}
	}
}

func newBuildOptions(opts []Option) buildOptions {
	o := buildOptions{workers: 1, threshold: defaultParallelThreshold}
	for _, f := range opts {
		f(&o)
	}
	return o
}

type partitioner[T any] struct {
	items   []T
	dim     int
	compare CompareFunc[T]
	opts    buildOptions
}

// partition rearranges items in place into kd order.
func partition[T any](items []T, dim int, compare CompareFunc[T], opts buildOptions) {
	p := &partitioner[T]{items: items, dim: dim, compare: compare, opts: opts}
	if opts.workers <= 1 || len(items) < opts.threshold {
		p.sort(0, len(items), 0)
		return
	}
	g := &errgroup.Group{}
	g.SetLimit(opts.workers - 1)
	p.sortParallel(g, 0, len(items), 0)
	_ = g.Wait()
}

func (p *partitioner[T]) sort(lo, hi, depth int) {
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		p.selectNth(lo, hi, mid, depth%p.dim)
		p.sort(lo, mid, depth+1)
		lo, depth = mid+1, depth+1
	}
}

func (p *partitioner[T]) sortParallel(g *errgroup.Group, lo, hi, depth int) {
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		p.selectNth(lo, hi, mid, depth%p.dim)
		l, m, d := lo, mid, depth+1
		switch {
		case m-l < p.opts.threshold:
			p.sort(l, m, d)
		case !g.TryGo(func() error {
			p.sortParallel(g, l, m, d)
			return nil
		}):
			p.sortParallel(g, l, m, d)
		}
		lo, depth = mid+1, depth+1
	}
}

// selectNth moves the k-th smallest element of [lo,hi) on axis to index k,
// with no greater element before it and no smaller one after it.
func (p *partitioner[T]) selectNth(lo, hi, k, axis int) {
	limit := 2 * bits.Len(uint(hi-lo))
	for hi-lo > insertionSortLen {
		if limit == 0 {
			slices.SortFunc(p.items[lo:hi], func(a, b T) int {
				return p.compare(a, b, axis)
			})
			return
		}
		limit--
		pivot := p.medianOfThree(lo, lo+(hi-lo)/2, hi-1, axis)
		lt, gt := p.partition3(lo, hi, pivot, axis)
		switch {
		case k < lt:
			hi = lt
		case k >= gt:
			lo = gt
		default:
			return
		}
	}
	p.insertionSort(lo, hi, axis)
}

func (p *partitioner[T]) medianOfThree(a, b, c, axis int) int {
	if p.less(b, a, axis) {
		a, b = b, a
	}
	if p.less(c, b, axis) {
		b = c
		if p.less(b, a, axis) {
			b = a
		}
	}
	return b
}

// partition3 splits [lo,hi) into < pivot, == pivot and > pivot and returns
// the bounds of the middle run.
func (p *partitioner[T]) partition3(lo, hi, pivot, axis int) (int, int) {
	items := p.items
	pv := items[pivot]
	lt, i, gt := lo, lo, hi
	for i < gt {
		c := p.compare(items[i], pv, axis)
		switch {
		case c < 0:
			items[lt], items[i] = items[i], items[lt]
			lt++
			i++
		case c > 0:
			gt--
			items[i], items[gt] = items[gt], items[i]
		default:
			i++
		}
	}
	return lt, gt
}

func (p *partitioner[T]) insertionSort(lo, hi, axis int) {
	items := p.items
	for i := lo + 1; i < hi; i++ {
		for j := i; j > lo && p.compare(items[j], items[j-1], axis) < 0; j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func (p *partitioner[T]) less(i, j, axis int) bool {
	return p.compare(p.items[i], p.items[j], axis) < 0
}

// ordered reports whether items satisfy the median-of-range invariant.
func ordered[T any](items []T, dim int, compare CompareFunc[T]) bool {
	var check func(lo, hi, depth int) bool
	check = func(lo, hi, depth int) bool {
		if hi-lo <= 1 {
			return true
		}
		axis := depth % dim
		mid := lo + (hi-lo)/2
		for i := lo; i < mid; i++ {
			if compare(items[i], items[mid], axis) > 0 {
				return false
			}
		}
		for i := mid + 1; i < hi; i++ {
			if compare(items[i], items[mid], axis) < 0 {
				return false
			}
		}
		return check(lo, mid, depth+1) && check(mid+1, hi, depth+1)
	}
	return check(0, len(items), 0)
}
