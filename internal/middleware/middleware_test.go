package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/weprep-api/internal/models"
	"github.com/noah-isme/weprep-api/internal/service"
	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
	err    error
	seen   string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.seen = token
	return v.claims, v.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/tutors/:id", chain...)
	return r
}

func serve(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	stub := &validatorStub{claims: &models.JWTClaims{UserID: "u1", Role: models.RoleTutor}}
	r := newRouter(JWT(stub))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/tutors/u1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/tutors/u1", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/tutors/u1", "Bearer   ").Code)

	w := serve(r, "/tutors/u1", "bearer token-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "token-1", stub.seen)
}

func TestJWTPropagatesValidationError(t *testing.T) {
	stub := &validatorStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")}
	w := serve(newRouter(JWT(stub)), "/tutors/u1", "Bearer bad")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "invalid token"))
}

func TestRBAC(t *testing.T) {
	withClaims := func(claims *models.JWTClaims) gin.HandlerFunc {
		return func(c *gin.Context) {
			if claims != nil {
				c.Set(ContextUserKey, claims)
			}
			c.Next()
		}
	}

	cases := []struct {
		name   string
		claims *models.JWTClaims
		path   string
		want   int
	}{
		{"anonymous", nil, "/tutors/t1", http.StatusUnauthorized},
		{"admin", &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, "/tutors/t1", http.StatusOK},
		{"self", &models.JWTClaims{UserID: "t1", Role: models.RoleTutor}, "/tutors/t1", http.StatusOK},
		{"other tutor", &models.JWTClaims{UserID: "t2", Role: models.RoleTutor}, "/tutors/t1", http.StatusForbidden},
		{"learner", &models.JWTClaims{UserID: "l1", Role: models.RoleLearner}, "/tutors/t1", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(withClaims(tc.claims), RBAC(string(models.RoleAdmin), Self))
			assert.Equal(t, tc.want, serve(r, tc.path, "").Code)
		})
	}
}

func TestMetricsLabelsByRoute(t *testing.T) {
	metrics := service.NewMetricsService()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/tutors/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, "/tutors/a", "")
	serve(r, "/tutors/b", "")
	serve(r, "/metrics", "")
	serve(r, "/nope", "")

	families, err := metrics.Registry().Gather()
	assert.NoError(t, err)
	var total int
	for _, f := range families {
		if f.GetName() == "http_requests_total" {
			total = len(f.GetMetric())
		}
	}
	assert.Equal(t, 2, total)
}
