package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"docket/internal/calendar"
	"docket/internal/clientmeetings/service"
	httputil "docket/pkg/http"
	"docket/pkg/logger"
	"docket/pkg/model"
)

type ClientMeetingHandler struct {
	service service.ClientMeetingService
	log     *logger.Logger
}

func NewClientMeetingHandler(service service.ClientMeetingService, log *logger.Logger) *ClientMeetingHandler {
	return &ClientMeetingHandler{
		service: service,
		log:     log,
	}
}

func (h *ClientMeetingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ClientMeetingHandler) writeMeeting(w http.ResponseWriter, handler string, m *model.ClientMeeting, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, m); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ClientMeetingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.service.Get(r.Context(), ps.ByName("id"))
	h.writeMeeting(w, "GetByID", m, err)
}

func (h *ClientMeetingHandler) ICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	data, err := h.service.ICS(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "ICS", err)
		return
	}

	w.Header().Set("Content-Type", calendar.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error("failed to write calendar response", "handler", "ICS", "operation", "Write", "error", err)
	}
}

func (h *ClientMeetingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.service.Confirm(r.Context(), ps.ByName("id"))
	h.writeMeeting(w, "Confirm", m, err)
}

func (h *ClientMeetingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CompleteRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, "Complete", err)
			return
		}
	}

	m, err := h.service.Complete(r.Context(), ps.ByName("id"), &req)
	h.writeMeeting(w, "Complete", m, err)
}

func (h *ClientMeetingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	m, err := h.service.Cancel(r.Context(), ps.ByName("id"), &req)
	h.writeMeeting(w, "Cancel", m, err)
}

func (h *ClientMeetingHandler) NoShow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.service.NoShow(r.Context(), ps.ByName("id"))
	h.writeMeeting(w, "NoShow", m, err)
}

func (h *ClientMeetingHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/client-meetings/:id", h.GetByID)
	router.GET("/api/v1/client-meetings/:id/ics", h.ICS)
	router.POST("/api/v1/client-meetings/:id/confirm", h.Confirm)
	router.POST("/api/v1/client-meetings/:id/complete", h.Complete)
	router.POST("/api/v1/client-meetings/:id/cancel", h.Cancel)
	router.POST("/api/v1/client-meetings/:id/no-show", h.NoShow)
}
