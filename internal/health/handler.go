package health

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	httputil "docket/pkg/http"
	kafka_middleware "docket/pkg/kafka/middleware"
	"docket/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Check is an extra readiness probe, e.g. the redis lock backend.
type Check func(ctx context.Context) error

type Response struct {
	Status   string                     `json:"status"`
	Database string                     `json:"database,omitempty"`
	Checks   map[string]string          `json:"checks,omitempty"`
	Events   *kafka_middleware.Snapshot `json:"events,omitempty"`
}

type Handler struct {
	mongo   Pinger
	checks  map[string]Check
	metrics *kafka_middleware.Metrics
	log     *logger.Logger
}

func NewHandler(mongo Pinger, log *logger.Logger) *Handler {
	return &Handler{
		mongo:  mongo,
		checks: make(map[string]Check),
		log:    log,
	}
}

func (h *Handler) AddCheck(name string, check Check) {
	h.checks[name] = check
}

// WithEventMetrics reports producer counters on /health.
func (h *Handler) WithEventMetrics(m *kafka_middleware.Metrics) {
	h.metrics = m
}

func (h *Handler) write(w http.ResponseWriter, handler string, status int, resp Response) {
	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := Response{Status: "ok"}
	if h.metrics != nil {
		snapshot := h.metrics.Snapshot()
		resp.Events = &snapshot
	}
	h.write(w, "Health", http.StatusOK, resp)
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.mongo.Ping(ctx, nil); err != nil {
		h.log.Error("Database health check failed",
			"error", err,
			"path", r.URL.Path,
		)
		h.write(w, "Ready", http.StatusServiceUnavailable, Response{
			Status:   "unavailable",
			Database: "error",
		})
		return
	}

	resp := Response{Status: "ready", Database: "ok"}
	status := http.StatusOK
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Error("Health check failed", "check", name, "error", err)
			resp.Checks[name] = "error"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	h.write(w, "Ready", status, resp)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
