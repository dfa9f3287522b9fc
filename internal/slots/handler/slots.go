package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"docket/internal/slots"
	apperrors "docket/pkg/errors"
	httputil "docket/pkg/http"
	"docket/pkg/logger"
)

type SlotGenerator interface {
	Generate(ctx context.Context, lawyerID, from, to string, durationMinutes int) ([]slots.Slot, error)
}

type SlotHandler struct {
	generator SlotGenerator
	log       *logger.Logger
}

func NewSlotHandler(generator SlotGenerator, log *logger.Logger) *SlotHandler {
	return &SlotHandler{
		generator: generator,
		log:       log,
	}
}

type slotsResponse struct {
	LawyerID        string       `json:"lawyer_id"`
	From            string       `json:"from"`
	To              string       `json:"to"`
	DurationMinutes int          `json:"duration_minutes"`
	Slots           []slots.Slot `json:"slots"`
}

func (h *SlotHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	lawyerID := strings.TrimSpace(ps.ByName("lawyer_id"))
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))
	if to == "" {
		to = from
	}

	raw := strings.TrimSpace(query.Get("duration"))
	if raw == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("'duration' query parameter is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	duration, err := strconv.Atoi(raw)
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid duration parameter: "+raw)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	result, err := h.generator.Generate(r.Context(), lawyerID, from, to, duration)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, slotsResponse{
		LawyerID:        lawyerID,
		From:            from,
		To:              to,
		DurationMinutes: duration,
		Slots:           result,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SlotHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/lawyers/:lawyer_id/slots", h.List)
}
