package query

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/go-sod/kd/internal/geom"
	"github.com/go-sod/kd/internal/httputil"
	"github.com/go-sod/kd/internal/index"
	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/internal/metrics"
	"github.com/go-sod/kd/pkg/container/kdtree"
)

type nearestRequest struct {
	Index   string      `json:"index"`
	Queries [][]float64 `json:"queries"`
}

type nearestResponse struct {
	Index   string `json:"index"`
	Results []*Hit `json:"results"`
}

type nearestsRequest struct {
	Index   string      `json:"index"`
	K       int         `json:"k"`
	Queries [][]float64 `json:"queries"`
}

type withinRequest struct {
	Index   string      `json:"index"`
	Radius  float64     `json:"radius"`
	Queries [][]float64 `json:"queries"`
}

type hitsResponse struct {
	Index   string  `json:"index"`
	Results [][]Hit `json:"results"`
}

type box []struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type withinBoxRequest struct {
	Index string `json:"index"`
	Boxes []box  `json:"boxes"`
}

type itemsResponse struct {
	Index   string   `json:"index"`
	Results [][]Item `json:"results"`
}

func point(q []float64) (geom.Point, error) {
	p := geom.NewPoint(q)
	return p, p.Validate()
}

// timed runs fn and records its latency and result count.
func timed[R any](ctx context.Context, name, mode string, fn func() (R, int, error)) (R, error) {
	start := time.Now()
	r, n, err := fn()
	if err == nil {
		metrics.RecordQuery(ctx, name, mode, time.Since(start), n)
	}
	return r, err
}

func (h *Handler) Nearest() http.Handler {
	return h.serve(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		var req nearestRequest
		if !httputil.DecodeJSON(ctx, w, r, &req) || !h.checkBatch(ctx, w, len(req.Queries)) {
			return
		}
		idx, ok := h.lookup(ctx, w, req.Index)
		if !ok {
			return
		}
		results, err := batch(ctx, h.cfg.Concurrency, len(req.Queries), func(i int) (*Hit, error) {
			return timed(ctx, idx.Name, metrics.ModeNearest, func() (*Hit, int, error) {
				q, err := point(req.Queries[i])
				if err != nil {
					return nil, 0, err
				}
				res, found, err := idx.Tree.Nearest(q)
				if err != nil || !found {
					return nil, 0, err
				}
				return &toHits([]kdtree.ItemAndDistance[index.Record, float64]{res})[0], 1, nil
			})
		})
		if err != nil {
			h.respBatchErr(ctx, w, err)
			return
		}
		logging.FromContext(ctx).Debugf("nearest: %d queries on %s", len(req.Queries), idx.Name)
		httputil.RespJSON(ctx, w, http.StatusOK, nearestResponse{Index: idx.Name, Results: results})
	})
}

func (h *Handler) Nearests() http.Handler {
	return h.serve(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		var req nearestsRequest
		if !httputil.DecodeJSON(ctx, w, r, &req) || !h.checkBatch(ctx, w, len(req.Queries)) {
			return
		}
		if req.K < 0 || req.K > h.cfg.MaxK {
			httputil.RespBadRequest(ctx, w, "k must be within [0, %d]", h.cfg.MaxK)
			return
		}
		idx, ok := h.lookup(ctx, w, req.Index)
		if !ok {
			return
		}
		results, err := batch(ctx, h.cfg.Concurrency, len(req.Queries), func(i int) ([]Hit, error) {
			return timed(ctx, idx.Name, metrics.ModeNearests, func() ([]Hit, int, error) {
				q, err := point(req.Queries[i])
				if err != nil {
					return nil, 0, err
				}
				res, err := idx.Tree.Nearests(q, req.K)
				if err != nil {
					return nil, 0, err
				}
				return toHits(res), len(res), nil
			})
		})
		if err != nil {
			h.respBatchErr(ctx, w, err)
			return
		}
		httputil.RespJSON(ctx, w, http.StatusOK, hitsResponse{Index: idx.Name, Results: results})
	})
}

func (h *Handler) WithinRadius() http.Handler {
	return h.serve(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		var req withinRequest
		if !httputil.DecodeJSON(ctx, w, r, &req) || !h.checkBatch(ctx, w, len(req.Queries)) {
			return
		}
		idx, ok := h.lookup(ctx, w, req.Index)
		if !ok {
			return
		}
		results, err := batch(ctx, h.cfg.Concurrency, len(req.Queries), func(i int) ([]Hit, error) {
			return timed(ctx, idx.Name, metrics.ModeWithinRadius, func() ([]Hit, int, error) {
				q, err := point(req.Queries[i])
				if err != nil {
					return nil, 0, err
				}
				res, err := idx.Tree.WithinRadius(q, req.Radius)
				if err != nil {
					return nil, 0, err
				}
				hits := toHits(res)
				slices.SortFunc(hits, func(a, b Hit) int {
					return cmp.Compare(a.SquaredDistance, b.SquaredDistance)
				})
				return hits, len(hits), nil
			})
		})
		if err != nil {
			h.respBatchErr(ctx, w, err)
			return
		}
		httputil.RespJSON(ctx, w, http.StatusOK, hitsResponse{Index: idx.Name, Results: results})
	})
}

func (h *Handler) WithinBox() http.Handler {
	return h.serve(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		var req withinBoxRequest
		if !httputil.DecodeJSON(ctx, w, r, &req) || !h.checkBatch(ctx, w, len(req.Boxes)) {
			return
		}
		idx, ok := h.lookup(ctx, w, req.Index)
		if !ok {
			return
		}
		results, err := batch(ctx, h.cfg.Concurrency, len(req.Boxes), func(i int) ([]Item, error) {
			return timed(ctx, idx.Name, metrics.ModeWithinBox, func() ([]Item, int, error) {
				ranges := make([]kdtree.Range[float64], len(req.Boxes[i]))
				for k, b := range req.Boxes[i] {
					ranges[k] = kdtree.Range[float64]{Min: b.Min, Max: b.Max}
				}
				res, err := idx.Tree.Within(ranges)
				if err != nil {
					return nil, 0, err
				}
				items := make([]Item, len(res))
				for k := range res {
					items[k] = Item{Label: res[k].Value, Point: res[k].Key}
				}
				return items, len(items), nil
			})
		})
		if err != nil {
			h.respBatchErr(ctx, w, err)
			return
		}
		httputil.RespJSON(ctx, w, http.StatusOK, itemsResponse{Index: idx.Name, Results: results})
	})
}
