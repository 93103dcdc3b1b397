package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/psgtech-fest/fest-api/internal/middleware"
	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := middleware.ClaimsFromContext(c)
	if claims == nil {
		return models.Actor{}, false
	}
	return claims.Actor(), true
}

func eventIDParam(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid event id")
	}
	return id, nil
}
