package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/weprep-api/pkg/errors"
	"github.com/noah-isme/weprep-api/pkg/middleware/requestid"
)

func perform(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", handler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestErrorUsesCatalogStatus(t *testing.T) {
	w := perform(func(c *gin.Context) { Error(c, appErrors.ErrReviewNotAllowedYet) })

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "Courses.ReviewNotAllowedYet", env.Error.Code)
	assert.Equal(t, "req-1", env.Meta["request_id"])
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	w := perform(func(c *gin.Context) { Error(c, errors.New("pq: password authentication failed")) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestCreated(t *testing.T) {
	w := perform(func(c *gin.Context) { Created(c, map[string]string{"id": "course-1"}) })

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"course-1"`)
}
