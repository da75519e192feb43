package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/noah-isme/weprep-api/internal/handler"
	"github.com/noah-isme/weprep-api/internal/models"
	"github.com/noah-isme/weprep-api/internal/service"
	"github.com/noah-isme/weprep-api/pkg/config"
)

type tokenStub struct{ role models.UserRole }

func (s tokenStub) ValidateToken(string) (*models.JWTClaims, error) {
	return &models.JWTClaims{UserID: "user-1", Role: s.role}, nil
}

func testRouter(role models.UserRole) http.Handler {
	metrics := service.NewMetricsService()
	cfg := &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"}
	return newRouter(cfg, zap.NewNop(), routerDeps{
		tokens:   tokenStub{role: role},
		metrics:  metrics,
		courses:  handler.NewCourseHandler(nil),
		requests: handler.NewTeachingRequestHandler(nil),
		health:   handler.NewMetricsHandler(metrics, nil),
	})
}

func TestRouterOpsEndpointsArePublic(t *testing.T) {
	r := testRouter(models.RoleLearner)
	for _, path := range []string{"/health", "/ready", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterRequiresToken(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter(models.RoleAdmin).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/courses", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterEnforcesRoles(t *testing.T) {
	cases := []struct {
		role   models.UserRole
		method string
		path   string
	}{
		{models.RoleLearner, http.MethodPost, "/api/v1/courses/c1/assign"},
		{models.RoleTutor, http.MethodPost, "/api/v1/courses"},
		{models.RoleLearner, http.MethodPost, "/api/v1/courses/c1/teaching-requests"},
		{models.RoleTutor, http.MethodPatch, "/api/v1/courses/c1/status"},
		{models.RoleTutor, http.MethodGet, "/api/v1/tutors/someone-else/teaching-requests"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set("Authorization", "Bearer token")
		w := httptest.NewRecorder()
		testRouter(tc.role).ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s as %s", tc.method, tc.path, tc.role)
	}
}
