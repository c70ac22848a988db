package query

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-sod/kd/internal/geom"
	"github.com/go-sod/kd/internal/httputil"
	"github.com/go-sod/kd/internal/index"
	"github.com/go-sod/kd/internal/logging"
	"github.com/go-sod/kd/pkg/container/kdtree"
)

type buildRequest struct {
	Name    string      `json:"name"`
	Points  [][]float64 `json:"points"`
	Labels  []string    `json:"labels"`
	Persist bool        `json:"persist"`
}

type indexInfo struct {
	Name      string    `json:"name"`
	Len       int       `json:"len"`
	Dimension int       `json:"dimension"`
	BuiltAt   time.Time `json:"builtAt"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func info(idx *index.Index) indexInfo {
	return indexInfo{Name: idx.Name, Len: idx.Len(), Dimension: idx.Dim(), BuiltAt: idx.BuiltAt}
}

// Index lists indexes on GET, builds one on POST and drops one on DELETE
// (?name=...).
func (h *Handler) Index() http.Handler {
	return h.serve(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.list(ctx, w)
		case http.MethodDelete:
			h.drop(ctx, w, r.URL.Query().Get("name"))
		default:
			h.build(ctx, w, r)
		}
	})
}

func (h *Handler) list(ctx context.Context, w http.ResponseWriter) {
	infos := []indexInfo{}
	for _, name := range h.registry.Names() {
		if idx, ok := h.registry.Get(name); ok {
			infos = append(infos, info(idx))
		}
	}
	httputil.RespJSON(ctx, w, http.StatusOK, infos)
}

func (h *Handler) drop(ctx context.Context, w http.ResponseWriter, name string) {
	err := h.registry.Drop(ctx, name)
	switch {
	case errors.Is(err, index.ErrNotFound):
		httputil.RespNotFound(ctx, w, "index %q not found", name)
	case err != nil:
		httputil.RespInternalError(ctx, w, "drop index %s: %v", name, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) build(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if !httputil.DecodeJSON(ctx, w, r, &req) {
		return
	}
	if req.Name == "" {
		httputil.RespBadRequest(ctx, w, "%v", index.ErrInvalidName)
		return
	}
	if len(req.Points) > h.cfg.MaxPoints {
		httputil.RespBadRequest(ctx, w, "too many points, max allowed is %d", h.cfg.MaxPoints)
		return
	}
	if req.Labels != nil && len(req.Labels) != len(req.Points) {
		httputil.RespBadRequest(ctx, w, "got %d labels for %d points", len(req.Labels), len(req.Points))
		return
	}
	points, err := geom.Points(req.Points)
	if err != nil {
		httputil.RespBadRequest(ctx, w, "%v", err)
		return
	}
	records := make([]index.Record, len(points))
	for i := range points {
		records[i] = index.Record{Key: points[i]}
		if req.Labels != nil {
			records[i].Value = req.Labels[i]
		}
	}

	idx, err := h.registry.Build(ctx, req.Name, records)
	switch {
	case errors.Is(err, kdtree.ErrZeroDimension), errors.Is(err, kdtree.ErrInvalidDimension):
		httputil.RespBadRequest(ctx, w, "%v", err)
		return
	case err != nil:
		httputil.RespInternalError(ctx, w, "build index: %v", err)
		return
	}
	if req.Persist {
		if _, err := h.registry.Persist(ctx, idx.Name); err != nil {
			httputil.RespInternalError(ctx, w, "persist index %s: %v", idx.Name, err)
			return
		}
	}
	httputil.RespJSON(ctx, w, http.StatusCreated, info(idx))
}

func (h *Handler) Snapshot() http.Handler {
	return h.serve(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if !httputil.DecodeJSON(ctx, w, r, &req) {
			return
		}
		snap, err := h.registry.Persist(ctx, req.Name)
		switch {
		case errors.Is(err, index.ErrNotFound):
			httputil.RespNotFound(ctx, w, "index %q not found", req.Name)
		case errors.Is(err, index.ErrNoStore):
			httputil.RespError(ctx, w, http.StatusConflict, "%v", err)
		case err != nil:
			httputil.RespInternalError(ctx, w, "persist index %s: %v", req.Name, err)
		default:
			httputil.RespJSON(ctx, w, http.StatusOK, snap)
		}
	})
}

func (h *Handler) Restore() http.Handler {
	return h.serve(func(ctx context.Context, w http.ResponseWriter, r *http.Request) {
		var req nameRequest
		if !httputil.DecodeJSON(ctx, w, r, &req) {
			return
		}
		idx, err := h.registry.Restore(ctx, req.Name)
		switch {
		case errors.Is(err, index.ErrNotFound):
			httputil.RespNotFound(ctx, w, "snapshot %q not found", req.Name)
		case errors.Is(err, index.ErrNoStore):
			httputil.RespError(ctx, w, http.StatusConflict, "%v", err)
		case err != nil:
			httputil.RespInternalError(ctx, w, "restore index %s: %v", req.Name, err)
		default:
			logging.FromContext(ctx).Infof("restored index %s", idx.Name)
			httputil.RespJSON(ctx, w, http.StatusOK, info(idx))
		}
	})
}
