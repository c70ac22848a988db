package server

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/go-sod/kd/internal/httputil"
)

// Health publishes per-index readiness through the standard gRPC health
// service. The empty service name reports the process itself.
type Health struct {
	srv *health.Server
}

func NewHealth() *Health {
	return &Health{srv: health.NewServer()}
}

func (h *Health) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.srv)
}

// SetIndex marks the service named after an index as serving or not.
func (h *Health) SetIndex(name string, ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus(name, status)
}

// Shutdown reports every service as not serving.
func (h *Health) Shutdown() {
	h.srv.Shutdown()
}

func HandleHealth(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ctx.Err(); err != nil {
			httputil.RespError(r.Context(), w, http.StatusServiceUnavailable, "shutting down")
			return
		}
		httputil.RespJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
