// Package query serves kd-tree queries and index administration over HTTP.
package query

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/go-sod/kd/internal/geom"
	"github.com/go-sod/kd/internal/httputil"
	"github.com/go-sod/kd/internal/index"
	"github.com/go-sod/kd/pkg/container/kdtree"
)

type Handler struct {
	cfg      *Config
	registry *index.Registry
}

func NewHandler(cfg *Config, registry *index.Registry) *Handler {
	return &Handler{cfg: cfg, registry: registry}
}

// Register mounts every endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/nearest", h.Nearest())
	mux.Handle("/nearests", h.Nearests())
	mux.Handle("/within", h.WithinRadius())
	mux.Handle("/within-box", h.WithinBox())
	mux.Handle("/index", h.Index())
	mux.Handle("/snapshot", h.Snapshot())
	mux.Handle("/restore", h.Restore())
}

// Hit is a query result.
type Hit struct {
	Label           string    `json:"label"`
	Point           []float64 `json:"point"`
	SquaredDistance float64   `json:"squaredDistance"`
}

// Item is a box query result.
type Item struct {
	Label string    `json:"label"`
	Point []float64 `json:"point"`
}

type queryError struct {
	pos int
	err error
}

func (e *queryError) Error() string { return fmt.Sprintf("query %d: %v", e.pos, e.err) }

func (e *queryError) Unwrap() error { return e.err }

func (h *Handler) serve(fn func(ctx context.Context, w http.ResponseWriter, r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
		defer cancel()
		fn(ctx, w, r)
	})
}

func (h *Handler) lookup(ctx context.Context, w http.ResponseWriter, name string) (*index.Index, bool) {
	idx, ok := h.registry.Get(name)
	if !ok {
		httputil.RespNotFound(ctx, w, "index %q not found", name)
		return nil, false
	}
	return idx, true
}

func (h *Handler) checkBatch(ctx context.Context, w http.ResponseWriter, n int) bool {
	if n == 0 {
		httputil.RespBadRequest(ctx, w, "no queries given")
		return false
	}
	if n > h.cfg.MaxQueries {
		httputil.RespBadRequest(ctx, w, "too many queries, max allowed is %d", h.cfg.MaxQueries)
		return false
	}
	return true
}

// batch evaluates fn for every position concurrently and keeps results in
// input order.
func batch[R any](ctx context.Context, limit, n int, fn func(i int) (R, error)) ([]R, error) {
	out := make([]R, n)
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := fn(i)
			if err != nil {
				return &queryError{pos: i, err: err}
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Handler) respBatchErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, kdtree.ErrInvalidDimension),
		errors.Is(err, kdtree.ErrNonFiniteScalar),
		errors.Is(err, geom.ErrNaN):
		httputil.RespBadRequest(ctx, w, "%v", err)
	case errors.Is(err, context.DeadlineExceeded):
		httputil.RespError(ctx, w, http.StatusServiceUnavailable, "query timed out")
	default:
		httputil.RespInternalError(ctx, w, "query processing error, %v", err)
	}
}

func toHits(res []kdtree.ItemAndDistance[index.Record, float64]) []Hit {
	hits := make([]Hit, len(res))
	for i, r := range res {
		hits[i] = Hit{Label: r.Item.Value, Point: r.Item.Key, SquaredDistance: r.SquaredDistance}
	}
	return hits
}
