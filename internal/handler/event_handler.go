package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psgtech-fest/fest-api/internal/models"
	"github.com/psgtech-fest/fest-api/internal/service"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
	"github.com/psgtech-fest/fest-api/pkg/response"
)

type eventService interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id int) (*models.Event, error)
	RegisterForEvent(ctx context.Context, userID string, eventID int) (*models.RegistrationOutcome, error)
}

// EventHandler serves the catalog and student registration.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.ListEvents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Get godoc
// @Summary Get event
// @Tags Events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Get(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	event, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event, nil)
}

// Register godoc
// @Summary Register for an event
// @Description Registers the caller once per event. Repeated calls return ALREADY_REGISTERED.
// @Tags Events
// @Produce json
// @Param id path int true "Event ID"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	outcome, err := h.service.RegisterForEvent(c.Request.Context(), actor.UserID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !outcome.OK() {
		response.Error(c, service.OutcomeError(outcome))
		return
	}
	response.Created(c, outcome.Registration)
}
