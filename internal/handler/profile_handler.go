package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
	"github.com/psgtech-fest/fest-api/pkg/response"
)

type profileService interface {
	Me(ctx context.Context, userID string) (*models.StudentProfile, error)
	UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.StudentProfile, error)
}

type myRegistrationsService interface {
	MyRegistrations(ctx context.Context, userID string) ([]models.Registration, error)
}

// ProfileHandler serves the signed-in user's own resources.
type ProfileHandler struct {
	profiles      profileService
	registrations myRegistrationsService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(profiles profileService, registrations myRegistrationsService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, registrations: registrations}
}

// Me godoc
// @Summary Current profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.profiles.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil, map[string]interface{}{
		"role":             actor.Role,
		"profile_complete": profile.Complete(),
	})
}

// UpdateProfile godoc
// @Summary Update mobile number and name
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), actor.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// MyRegistrations godoc
// @Summary Registrations of the current user
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /me/registrations [get]
func (h *ProfileHandler) MyRegistrations(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	regs, err := h.registrations.MyRegistrations(c.Request.Context(), actor.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, nil)
}
