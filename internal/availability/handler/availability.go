package handler

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"docket/internal/availability/service"
	httputil "docket/pkg/http"
	"docket/pkg/logger"
	"docket/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	a, err := h.service.GetAvailability(r.Context(), ps.ByName("lawyer_id"))
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, a); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) Put(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var a model.Availability
	if err := httputil.DecodeJSON(r, &a); err != nil {
		h.writeError(w, "Put", err)
		return
	}

	if err := h.service.PutAvailability(r.Context(), ps.ByName("lawyer_id"), &a); err != nil {
		h.writeError(w, "Put", err)
		return
	}

	if err := httputil.WriteSuccess(w, a); err != nil {
		h.log.Error("failed to write success response", "handler", "Put", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) ListExceptions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	from := strings.TrimSpace(query.Get("from"))
	to := strings.TrimSpace(query.Get("to"))
	if to == "" {
		to = from
	}

	exceptions, err := h.service.ListExceptions(r.Context(), ps.ByName("lawyer_id"), from, to)
	if err != nil {
		h.writeError(w, "ListExceptions", err)
		return
	}

	if err := httputil.WriteSuccess(w, exceptions); err != nil {
		h.log.Error("failed to write success response", "handler", "ListExceptions", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) PutException(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var e model.AvailabilityException
	if err := httputil.DecodeJSON(r, &e); err != nil {
		h.writeError(w, "PutException", err)
		return
	}

	if err := h.service.PutException(r.Context(), ps.ByName("lawyer_id"), ps.ByName("date"), &e); err != nil {
		h.writeError(w, "PutException", err)
		return
	}

	if err := httputil.WriteSuccess(w, e); err != nil {
		h.log.Error("failed to write success response", "handler", "PutException", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) DeleteException(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeleteException(r.Context(), ps.ByName("lawyer_id"), ps.ByName("date")); err != nil {
		h.writeError(w, "DeleteException", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/lawyers/:lawyer_id/availability", h.Get)
	router.PUT("/api/v1/lawyers/:lawyer_id/availability", h.Put)
	router.GET("/api/v1/lawyers/:lawyer_id/exceptions", h.ListExceptions)
	router.PUT("/api/v1/lawyers/:lawyer_id/exceptions/:date", h.PutException)
	router.DELETE("/api/v1/lawyers/:lawyer_id/exceptions/:date", h.DeleteException)
}
