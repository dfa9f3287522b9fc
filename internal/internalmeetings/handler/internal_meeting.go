package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"docket/internal/calendar"
	"docket/internal/internalmeetings/service"
	httputil "docket/pkg/http"
	"docket/pkg/logger"
	"docket/pkg/model"
)

type InternalMeetingHandler struct {
	service service.InternalMeetingService
	log     *logger.Logger
}

func NewInternalMeetingHandler(service service.InternalMeetingService, log *logger.Logger) *InternalMeetingHandler {
	return &InternalMeetingHandler{
		service: service,
		log:     log,
	}
}

func (h *InternalMeetingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InternalMeetingHandler) writeMeeting(w http.ResponseWriter, handler string, m *model.InternalMeeting, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, m); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *InternalMeetingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var m model.InternalMeeting
	if err := httputil.DecodeJSON(r, &m); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &m); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, &m); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *InternalMeetingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.service.Get(r.Context(), ps.ByName("id"))
	h.writeMeeting(w, "GetByID", m, err)
}

func (h *InternalMeetingHandler) Button(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.service.Button(r.Context(), ps.ByName("id"), r.URL.Query().Get("viewer"))
	if err != nil {
		h.writeError(w, "Button", err)
		return
	}
	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Button", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InternalMeetingHandler) ICS(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

func (h *InternalMeetingHandler) Start(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.service.Start(r.Context(), ps.ByName("id"))
	h.writeMeeting(w, "Start", m, err)
}

func (h *InternalMeetingHandler) Join(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.JoinRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Join", err)
		return
	}

	m, err := h.service.Join(r.Context(), ps.ByName("id"), &req)
	h.writeMeeting(w, "Join", m, err)
}

func (h *InternalMeetingHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, err := h.service.Complete(r.Context(), ps.ByName("id"))
	h.writeMeeting(w, "Complete", m, err)
}

func (h *InternalMeetingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.InternalCancelRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	m, err := h.service.Cancel(r.Context(), ps.ByName("id"), &req)
	h.writeMeeting(w, "Cancel", m, err)
}

func (h *InternalMeetingHandler) WriteSummary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.SummaryRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "WriteSummary", err)
		return
	}

	m, err := h.service.WriteSummary(r.Context(), ps.ByName("id"), &req)
	h.writeMeeting(w, "WriteSummary", m, err)
}

func (h *InternalMeetingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/internal-meetings", h.Create)
	router.GET("/api/v1/internal-meetings/:id", h.GetByID)
	router.GET("/api/v1/internal-meetings/:id/button", h.Button)
	router.GET("/api/v1/internal-meetings/:id/ics", h.ICS)
	router.POST("/api/v1/internal-meetings/:id/start", h.Start)
	router.POST("/api/v1/internal-meetings/:id/join", h.Join)
	router.POST("/api/v1/internal-meetings/:id/complete", h.Complete)
	router.POST("/api/v1/internal-meetings/:id/cancel", h.Cancel)
	router.POST("/api/v1/internal-meetings/:id/summary", h.WriteSummary)
}
