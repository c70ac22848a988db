// Package index keeps named, immutable kd-trees that can be rebuilt,
// persisted and restored while being queried.
package index

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sod/kd/internal/byteutil"
	"github.com/go-sod/kd/internal/codec"
	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/internal/metrics"
	"github.com/go-sod/kd/internal/snapshot"
	"github.com/go-sod/kd/pkg/container/kdtree"
)

var (
	ErrNotFound    = errors.New("index not found")
	ErrInvalidName = errors.New("index name must not be empty")
	ErrNoStore     = errors.New("no snapshot store configured")
)

// Record is a labelled point, the item of every served tree.
type Record = codec.Record

type Tree = kdtree.Tree[Record, float64]

// Index is one published tree. It is never modified after publication.
type Index struct {
	Name    string
	Tree    *Tree
	BuiltAt time.Time
}

func (i *Index) Dim() int { return i.Tree.Dim() }

func (i *Index) Len() int { return i.Tree.Len() }

func recordCoord(r Record, axis int) float64 { return r.Key[axis] }

func WithParallel(workers int) Option {
	return func(r *Registry) {
		r.buildOpts = append(r.buildOpts, kdtree.WithParallel(workers))
	}
}

func WithParallelThreshold(n int) Option {
	return func(r *Registry) {
		r.buildOpts = append(r.buildOpts, kdtree.WithParallelThreshold(n))
	}
}

func WithStore(store snapshot.Store) Option {
	return func(r *Registry) {
		r.store = store
	}
}

// WithNotify registers fn to be called whenever an index is published
// (ready is true) or dropped (ready is false).
func WithNotify(fn func(name string, ready bool)) Option {
	return func(r *Registry) {
		r.notify = fn
	}
}

type Option func(*Registry)

func New(opts ...Option) *Registry {
	r := &Registry{notify: func(string, bool) {}, saving: map[string]*sync.Mutex{}}
	empty := map[string]*gbTree{}
	r.slots.Store(&empty)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry maps names to double-buffered trees. Lookups are lock free;
// mutations are serialized.
type Registry struct {
	mtx       sync.Mutex
	saveMtx   sync.Mutex
	saving    map[string]*sync.Mutex
	slots     atomic.Pointer[map[string]*gbTree]
	store     snapshot.Store
	buildOpts []kdtree.Option
	notify    func(name string, ready bool)
}

func (r *Registry) Get(name string) (*Index, bool) {
	slot, ok := (*r.slots.Load())[name]
	if !ok {
		return nil, false
	}
	idx := slot.active()
	return idx, idx != nil
}

func (r *Registry) Names() []string {
	slots := *r.slots.Load()
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build constructs a tree over records and publishes it under name,
// replacing any previous tree once construction succeeded.
func (r *Registry) Build(ctx context.Context, name string, records []Record) (*Index, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	logger := logging.FromContext(ctx)

	start := time.Now()
	tree, err := kdtree.BuildMapByOrderedFloat[float64](records, r.buildOpts...)
	if err != nil {
		return nil, fmt.Errorf("build index %s: %w", name, err)
	}
	took := time.Since(start)
	metrics.RecordBuild(ctx, name, took, tree.Len())
	logger.Infof("built index %s: %d points, dimension %d, took %v", name, tree.Len(), tree.Dim(), took)

	return r.publish(name, tree), nil
}

// Load adopts an encoded snapshot read from src.
func (r *Registry) Load(ctx context.Context, name string, src io.Reader) (*Index, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	dim, records, err := codec.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode index %s: %w", name, err)
	}
	var tree *Tree
	if len(records) == 0 {
		tree, err = kdtree.BuildMapByOrderedFloat[float64](records)
	} else {
		tree, err = kdtree.FromOrdered(records, dim, recordCoord)
	}
	if err != nil {
		return nil, fmt.Errorf("adopt index %s: %w", name, err)
	}
	metrics.RecordBuild(ctx, name, 0, tree.Len())
	logging.FromContext(ctx).Infof("loaded index %s: %d points, dimension %d", name, tree.Len(), tree.Dim())

	return r.publish(name, tree), nil
}

func (r *Registry) publish(name string, tree *Tree) *Index {
	idx := &Index{Name: name, Tree: tree, BuiltAt: time.Now().UTC()}

	r.mtx.Lock()
	defer r.mtx.Unlock()

	slots := *r.slots.Load()
	slot, ok := slots[name]
	if !ok {
		slot = &gbTree{}
		next := make(map[string]*gbTree, len(slots)+1)
		for k, v := range slots {
			next[k] = v
		}
		next[name] = slot
		slot.publish(idx)
		r.slots.Store(&next)
	} else {
		slot.publish(idx)
	}
	r.notify(name, true)
	return idx
}

// nameLock serializes snapshot writes of one name. Locks are kept for the
// life of the registry.
func (r *Registry) nameLock(name string) *sync.Mutex {
	r.saveMtx.Lock()
	defer r.saveMtx.Unlock()
	mu, ok := r.saving[name]
	if !ok {
		mu = &sync.Mutex{}
		r.saving[name] = mu
	}
	return mu
}

// Drop removes name from memory and, when a store is configured, deletes
// its snapshot. It waits for a save of name in flight.
func (r *Registry) Drop(ctx context.Context, name string) error {
	mu := r.nameLock(name)
	mu.Lock()
	defer mu.Unlock()

	r.mtx.Lock()
	slots := *r.slots.Load()
	if _, ok := slots[name]; !ok {
		r.mtx.Unlock()
		return ErrNotFound
	}
	next := make(map[string]*gbTree, len(slots))
	for k, v := range slots {
		if k != name {
			next[k] = v
		}
	}
	r.slots.Store(&next)
	r.notify(name, false)
	r.mtx.Unlock()

	logging.FromContext(ctx).Infof("dropped index %s", name)
	if r.store == nil {
		return nil
	}
	if err := r.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	return nil
}

// Encode writes the active tree of name in snapshot form.
func (r *Registry) Encode(name string, w io.Writer) (*Index, error) {
	idx, ok := r.Get(name)
	if !ok {
		return nil, ErrNotFound
	}
	if err := codec.Encode(w, idx.Dim(), idx.Tree.Items()); err != nil {
		return nil, fmt.Errorf("encode index %s: %w", name, err)
	}
	return idx, nil
}

// Persist saves the active tree of name. A tree published while the save
// was in flight is saved in turn, so the store never ends up behind memory.
func (r *Registry) Persist(ctx context.Context, name string) (snapshot.Snapshot, error) {
	if r.store == nil {
		return snapshot.Snapshot{}, ErrNoStore
	}
	mu := r.nameLock(name)
	mu.Lock()
	defer mu.Unlock()

	for {
		snap, idx, err := r.save(ctx, name)
		if err != nil {
			return snapshot.Snapshot{}, err
		}
		if cur, ok := r.Get(name); !ok || cur == idx {
			logging.FromContext(ctx).Infof("persisted index %s as snapshot %s (%d bytes)", name, snap.ID, snap.Size)
			return snap, nil
		}
		if err := ctx.Err(); err != nil {
			return snapshot.Snapshot{}, fmt.Errorf("save snapshot %s: %w", name, err)
		}
		logging.FromContext(ctx).Debugf("index %s replaced while saving, saving again", name)
	}
}

func (r *Registry) save(ctx context.Context, name string) (snapshot.Snapshot, *Index, error) {
	buf := byteutil.GetBytesBuf()
	defer byteutil.PutBytesBuf(buf)
	idx, err := r.Encode(name, buf)
	if err != nil {
		return snapshot.Snapshot{}, nil, err
	}
	snap, err := r.store.Save(ctx, snapshot.New(name, idx.Dim(), idx.Len()), buf.Bytes())
	if err != nil {
		return snapshot.Snapshot{}, nil, fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return snap, idx, nil
}

func (r *Registry) Restore(ctx context.Context, name string) (*Index, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}
	blob, snap, err := r.store.Load(ctx, name)
	if errors.Is(err, snapshot.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	idx, err := r.Load(ctx, name, bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	if snap.Len != idx.Len() {
		logging.FromContext(ctx).Errorf("snapshot %s declares %d points, decoded %d", snap.ID, snap.Len, idx.Len())
	}
	return idx, nil
}

// RestoreAll restores every snapshot in the store, stopping at the first
// failure.
func (r *Registry) RestoreAll(ctx context.Context) error {
	if r.store == nil {
		return ErrNoStore
	}
	names, err := r.store.Names(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	for _, name := range names {
		if _, err := r.Restore(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
