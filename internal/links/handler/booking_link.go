package handler

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"docket/internal/links/service"
	httputil "docket/pkg/http"
	"docket/pkg/logger"
	"docket/pkg/model"
)

type BookingLinkHandler struct {
	service service.BookingLinkService
	log     *logger.Logger
}

func NewBookingLinkHandler(service service.BookingLinkService, log *logger.Logger) *BookingLinkHandler {
	return &BookingLinkHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingLinkHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingLinkHandler) Issue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingLinkRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Issue", err)
		return
	}

	link, err := h.service.Issue(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Issue", err)
		return
	}

	if err := httputil.WriteCreated(w, link); err != nil {
		h.log.Error("failed to write created response", "handler", "Issue", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingLinkHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	lawyerID := strings.TrimSpace(r.URL.Query().Get("lawyer_id"))

	links, total, err := h.service.List(r.Context(), lawyerID, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, links, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingLinkHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingLinkHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/booking-links", h.Issue)
	router.GET("/api/v1/booking-links", h.List)
	router.DELETE("/api/v1/booking-links/:id", h.Delete)
}
