package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/psgtech-fest/fest-api/internal/models"
	appErrors "github.com/psgtech-fest/fest-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Wrap(errors.New("bad token"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	return s.claims, nil
}

func newRouter(role models.Role, guards ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(stubValidator{claims: &models.JWTClaims{UserID: "u", Role: role}})}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, ClaimsFromContext(c).UserID)
	})
	r.GET("/x", handlers...)
	return r
}

func serve(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newRouter(models.RoleStudent)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer nope").Code)

	w := serve(r, "Bearer good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u", w.Body.String())
}

func TestRequireCoordinator(t *testing.T) {
	cases := map[models.Role]int{
		models.RoleAdmin:              http.StatusOK,
		models.RoleEventCoordinator:   http.StatusOK,
		models.RoleStudentCoordinator: http.StatusOK,
		models.RoleStudent:            http.StatusForbidden,
	}
	for role, want := range cases {
		r := newRouter(role, RequireCoordinator())
		assert.Equal(t, want, serve(r, "Bearer good").Code, string(role))
	}
}

func TestRequireRolesAdminOnly(t *testing.T) {
	r := newRouter(models.RoleEventCoordinator, RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer good").Code)
}
