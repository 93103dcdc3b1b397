package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
	"github.com/psgtech-fest/fest-api/pkg/response"
)

type authService interface {
	SignIn(ctx context.Context, req models.SignInRequest) (*models.SignInResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// SignIn godoc
// @Summary Sign in
// @Description Exchange an auth provider ID token for a session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignInRequest true "Sign-in payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /auth/sign-in [post]
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sign-in payload"))
		return
	}

	res, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
