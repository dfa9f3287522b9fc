package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"docket/internal/reservations/service"
	apperrors "docket/pkg/errors"
	httputil "docket/pkg/http"
	"docket/pkg/logger"
	"docket/pkg/model"
)

// BookingPrefix is the public route prefix; it is rate limited per client.
const BookingPrefix = "/api/v1/book/"

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) Page(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	q := service.PageQuery{
		From: strings.TrimSpace(query.Get("from")),
		To:   strings.TrimSpace(query.Get("to")),
	}
	if raw := strings.TrimSpace(query.Get("duration")); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, "Page", apperrors.InvalidInput("invalid duration parameter: "+raw))
			return
		}
		q.DurationMinutes = duration
	}

	page, err := h.service.Page(r.Context(), ps.ByName("token"), q)
	if err != nil {
		h.writeError(w, "Page", err)
		return
	}

	if err := httputil.WriteSuccess(w, page); err != nil {
		h.log.Error("failed to write success response", "handler", "Page", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	meeting, err := h.service.Reserve(r.Context(), ps.ByName("token"), &req)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, meeting); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(BookingPrefix+":token", h.Page)
	router.POST(BookingPrefix+":token", h.Reserve)
}
