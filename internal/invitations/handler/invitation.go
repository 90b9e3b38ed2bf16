package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"eventms/internal/invitations/service"
	httputil "eventms/pkg/http"
	"eventms/pkg/logger"
	"eventms/pkg/model"
)

type InvitationHandler struct {
	service service.InvitationService
	log     *logger.Logger
}

func NewInvitationHandler(service service.InvitationService, log *logger.Logger) *InvitationHandler {
	return &InvitationHandler{
		service: service,
		log:     log,
	}
}

func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventId")

	var req model.InvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	invitations, err := h.service.Create(r.Context(), eventID, req.Emails)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, invitations); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *InvitationHandler) GetByEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventId")

	invitations, err := h.service.GetByEvent(r.Context(), eventID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByEvent", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, invitations); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByEvent", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InvitationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/invitations/event/:eventId", h.Create)
	router.GET("/api/v1/invitations/event/:eventId", h.GetByEvent)
}

// PublicInvitationHandler serves the RSVP endpoint. Invitees respond with the
// emailed token and hold no account, so these routes bypass bearer auth.
type PublicInvitationHandler struct {
	service service.InvitationService
	log     *logger.Logger
}

func NewPublicInvitationHandler(service service.InvitationService, log *logger.Logger) *PublicInvitationHandler {
	return &PublicInvitationHandler{
		service: service,
		log:     log,
	}
}

func (h *PublicInvitationHandler) Respond(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	token := ps.ByName("token")

	var req model.InvitationResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Respond", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	invitation, err := h.service.Respond(r.Context(), token, req.Action)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Respond", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, invitation); err != nil {
		h.log.Error("failed to write success response", "handler", "Respond", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PublicInvitationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/public/invitations/respond/:token", h.Respond)
}
