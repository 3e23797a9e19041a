package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"code-review-client/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", 1)
	token, err := issuer.Issue(42, models.RoleMentor)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, models.RoleMentor, claims.Role)

	_, err = NewTokenIssuer("other", 1).Parse(token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", 1)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Issue(1, models.RoleStudent)
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func serve(handlers ...gin.HandlerFunc) func(header string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })...)
	return func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}
}

func TestAuthMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("secret", 1)
	token, err := issuer.Issue(7, models.RoleStudent)
	require.NoError(t, err)

	known := func(id int) bool { return id == 7 }
	call := serve(AuthMiddleware(issuer, known))

	assert.Equal(t, http.StatusNoContent, call("Bearer "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, call("").Code)
	assert.Equal(t, http.StatusUnauthorized, call(token).Code)
	assert.Equal(t, "Bearer", call("").Header().Get("WWW-Authenticate"))

	gone := serve(AuthMiddleware(issuer, func(int) bool { return false }))
	assert.Equal(t, http.StatusUnauthorized, gone("Bearer "+token).Code)
}

func TestRequireRole(t *testing.T) {
	issuer := NewTokenIssuer("secret", 1)
	student, _ := issuer.Issue(1, models.RoleStudent)
	mentor, _ := issuer.Issue(2, models.RoleMentor)

	call := serve(AuthMiddleware(issuer, nil), RequireRole(models.RoleMentor, models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, call("Bearer "+student).Code)
	assert.Equal(t, http.StatusNoContent, call("Bearer "+mentor).Code)
}

func TestRateLimiter(t *testing.T) {
	call := serve(NewRateLimiter(1).Handler())
	assert.Equal(t, http.StatusNoContent, call("").Code)
	assert.Equal(t, http.StatusTooManyRequests, call("").Code)
}

func TestRequestIDEchoesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}
