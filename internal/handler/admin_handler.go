package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/psgtech-fest/fest-api/internal/models"
	"github.com/psgtech-fest/fest-api/internal/service"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
	"github.com/psgtech-fest/fest-api/pkg/response"
)

type adminService interface {
	ToggleAttendance(ctx context.Context, actor models.Actor, userID string, eventID int) (bool, error)
	MarkBulkAttendance(ctx context.Context, actor models.Actor, eventID int, req models.BulkAttendanceRequest) (*models.BulkAttendanceResult, error)
	RemoveRegistration(ctx context.Context, actor models.Actor, userID string, eventID int) error
	AdminAddRegistration(ctx context.Context, actor models.Actor, eventID int, fields models.StudentFields) (*models.RegistrationOutcome, error)
	DeleteUserByRoll(ctx context.Context, actor models.Actor, roll string) (*models.UserDeletionResult, error)
	UpdateUserDetails(ctx context.Context, actor models.Actor, roll string, patch models.ProfilePatch) (*models.UserUpdateResult, error)
	Stats(ctx context.Context, actor models.Actor) (*models.DashboardStats, error)
	ListEventRegistrations(ctx context.Context, actor models.Actor, eventID int) (*models.Event, []models.Registration, error)
	ListParticipants(ctx context.Context, actor models.Actor) ([]models.Participant, error)
}

type exportService interface {
	EventRegistrations(ctx context.Context, actor models.Actor, eventID int, format models.ExportFormat) (*models.ExportFile, error)
	Participants(ctx context.Context, actor models.Actor, format models.ExportFormat) (*models.ExportFile, error)
}

// AdminHandler exposes coordinator and admin endpoints.
type AdminHandler struct {
	admin   adminService
	exports exportService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin adminService, exports exportService) *AdminHandler {
	return &AdminHandler{admin: admin, exports: exports}
}

// Stats godoc
// @Summary Registration statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.admin.Stats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Participants godoc
// @Summary All participants
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/participants [get]
func (h *AdminHandler) Participants(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	participants, err := h.admin.ListParticipants(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participants, &models.Pagination{Page: 1, PageSize: len(participants), TotalCount: len(participants)})
}

// ExportParticipants godoc
// @Summary Export all participants
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /admin/participants/export [get]
func (h *AdminHandler) ExportParticipants(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.exports.Participants(c.Request.Context(), actor, exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// EventRegistrations godoc
// @Summary Registrations of one event
// @Tags Admin
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/events/{id}/registrations [get]
func (h *AdminHandler) EventRegistrations(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	event, regs, err := h.admin.ListEventRegistrations(c.Request.Context(), actor, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs, &models.Pagination{Page: 1, PageSize: len(regs), TotalCount: len(regs)},
		map[string]interface{}{"event": event})
}

// ExportEventRegistrations godoc
// @Summary Export registrations of one event
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Event ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /admin/events/{id}/registrations/export [get]
func (h *AdminHandler) ExportEventRegistrations(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.EventRegistrations(c.Request.Context(), actor, eventID, exportFormat(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// AddRegistration godoc
// @Summary Add a registration by hand
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body models.StudentFields true "Student details"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/events/{id}/registrations [post]
func (h *AdminHandler) AddRegistration(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var fields models.StudentFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student details"))
		return
	}
	outcome, err := h.admin.AdminAddRegistration(c.Request.Context(), actor, eventID, fields)
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

// ToggleAttendance godoc
// @Summary Toggle attendance
// @Tags Admin
// @Produce json
// @Param id path int true "Event ID"
// @Param userId path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/events/{id}/registrations/{userId}/attendance [patch]
func (h *AdminHandler) ToggleAttendance(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	userID := c.Param("userId")
	attended, err := h.admin.ToggleAttendance(c.Request.Context(), actor, userID, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"user_id": userID, "event_id": eventID, "attended": attended}, nil)
}

// BulkAttendance godoc
// @Summary Mark attendance for several participants
// @Description Applies to every listed participant or to none.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body models.BulkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/events/{id}/attendance [post]
func (h *AdminHandler) BulkAttendance(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	result, err := h.admin.MarkBulkAttendance(c.Request.Context(), actor, eventID, req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RemoveRegistration godoc
// @Summary Remove a registration
// @Tags Admin
// @Param id path int true "Event ID"
// @Param userId path string true "User ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /admin/events/{id}/registrations/{userId} [delete]
func (h *AdminHandler) RemoveRegistration(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	eventID, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.admin.RemoveRegistration(c.Request.Context(), actor, c.Param("userId"), eventID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateUser godoc
// @Summary Edit a student's details everywhere
// @Tags Admin
// @Accept json
// @Produce json
// @Param roll path string true "Roll number"
// @Param payload body models.ProfilePatch true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{roll} [patch]
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user details"))
		return
	}
	result, err := h.admin.UpdateUserDetails(c.Request.Context(), actor, c.Param("roll"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// DeleteUser godoc
// @Summary Delete a student and all their registrations
// @Tags Admin
// @Produce json
// @Param roll path string true "Roll number"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{roll} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.admin.DeleteUserByRoll(c.Request.Context(), actor, c.Param("roll"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func exportFormat(c *gin.Context) models.ExportFormat {
	return models.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(models.ExportFormatCSV))))
}
