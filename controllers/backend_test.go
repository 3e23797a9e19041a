package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"code-review-client/controllers"
	"code-review-client/middleware"
	"code-review-client/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	t       *testing.T
	router  *gin.Engine
	backend *controllers.Backend
}

func newHarness(t *testing.T, opts ...controllers.Option) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	opts = append([]controllers.Option{controllers.WithBcryptCost(bcrypt.MinCost)}, opts...)
	backend := controllers.NewBackend(middleware.NewTokenIssuer("test-secret", 1), opts...)
	router := gin.New()
	routes.SetupRoutes(router, backend, routes.Limits{LoginPerMinute: 100, RegisterPerMinute: 100})
	return &harness{t: t, router: router, backend: backend}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

// signup registers and logs in, returning the bearer token.
func (h *harness) signup(name, role string) string {
	h.t.Helper()
	email := name + "@example.com"
	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123", "role": role,
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "password123",
	})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.AccessToken
}

func (h *harness) createSubmission(token, title string) int {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/api/submissions", token, map[string]any{
		"title":        title,
		"description":  "desc",
		"code_content": "print('hi')",
		"language":     "python",
		"tags":         []string{"loops"},
	})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID int `json:"id"`
	}
	require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	token := h.signup("alice", "student")
	assert.NotEmpty(t, token)

	rec := h.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "alice", me["name"])
	assert.Equal(t, "student", me["role"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.signup("alice", "student")

	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice Again", "email": "ALICE@example.com", "password": "password123", "role": "student",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered.", decode(t, rec)["detail"])
}

func TestRegisterValidationUsesDetailList(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "bob", "email": "bob@example.com", "password": "short", "role": "student",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	detail, ok := decode(t, rec)["detail"].([]any)
	require.True(t, ok)
	require.Len(t, detail, 1)
	assert.Contains(t, detail[0].(map[string]any)["msg"], "8")
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.signup("alice", "student")

	rec := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password.", decode(t, rec)["detail"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/submissions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/api/submissions", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOnlyStudentsCreateSubmissions(t *testing.T) {
	h := newHarness(t)
	mentor := h.signup("mona", "mentor")

	rec := h.do(http.MethodPost, "/api/submissions", mentor, map[string]any{
		"title": "t", "description": "d", "code_content": "x",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only students can create submissions.", decode(t, rec)["detail"])
}

func TestSubmissionVisibility(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice", "student")
	bob := h.signup("bob", "student")
	mentor := h.signup("mona", "mentor")
	id := h.createSubmission(alice, "Alice's loop")
	h.createSubmission(bob, "Bob's loop")

	rec := h.do(http.MethodGet, fmt.Sprintf("/api/submissions/%d", id), bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/api/submissions", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 1, page["total"])

	rec = h.do(http.MethodGet, "/api/submissions?limit=1&skip=1", mentor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page = decode(t, rec)
	assert.EqualValues(t, 2, page["total"])
	assert.EqualValues(t, 2, page["page"])
	assert.EqualValues(t, 2, page["pages"])
	assert.EqualValues(t, 1, page["showing"])
	item := page["submissions"].([]any)[0].(map[string]any)
	assert.Equal(t, "Bob's loop", item["title"])
	assert.Equal(t, "bob", item["user"].(map[string]any)["name"])

	rec = h.do(http.MethodGet, "/api/submissions?limit=500", mentor, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReviewLocksSubmission(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice", "student")
	mentor := h.signup("mona", "mentor")
	id := h.createSubmission(alice, "Loop")

	rec := h.do(http.MethodPost, "/api/reviews", alice, map[string]any{
		"submission_id": id, "overall_comment": "self review", "rating": 10,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodPost, "/api/reviews", mentor, map[string]any{
		"submission_id":   id,
		"overall_comment": "Good work",
		"rating":          7,
		"annotations":     []map[string]any{{"line_number": 1, "comment_text": "Nice start"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode(t, rec)
	assert.EqualValues(t, 7, review["rating"])
	assert.Len(t, review["annotations"], 1)

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/submissions/%d", id), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sub := decode(t, rec)
	assert.Equal(t, "reviewed", sub["status"])
	assert.Len(t, sub["reviews"], 1)

	rec = h.do(http.MethodPut, fmt.Sprintf("/api/submissions/%d", id), alice, map[string]any{
		"title": "New", "description": "d", "code_content": "x",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only pending submissions can be updated.", decode(t, rec)["detail"])

	rec = h.do(http.MethodDelete, fmt.Sprintf("/api/submissions/%d", id), alice, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only pending submissions can be deleted.", decode(t, rec)["detail"])

	rec = h.do(http.MethodGet, fmt.Sprintf("/api/reviews/submission/%d", id), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["reviews"], 1)
}

func TestReviewRejectsOutOfRangeRating(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice", "student")
	mentor := h.signup("mona", "mentor")
	id := h.createSubmission(alice, "Loop")

	rec := h.do(http.MethodPost, "/api/reviews", mentor, map[string]any{
		"submission_id": id, "overall_comment": "ok", "rating": 11,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestEditAndDeleteRequireOwner(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice", "student")
	bob := h.signup("bob", "student")
	id := h.createSubmission(alice, "Loop")
	path := fmt.Sprintf("/api/submissions/%d", id)

	rec := h.do(http.MethodPut, path, bob, map[string]any{"title": "x", "description": "d", "code_content": "c"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not authorized to update this submission.", decode(t, rec)["detail"])

	rec = h.do(http.MethodPut, path, alice, map[string]any{"title": "Renamed", "description": "d", "code_content": "c"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode(t, rec)["title"])

	rec = h.do(http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to []string, subject, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to...)
	return nil
}

func TestReviewNotifiesOwner(t *testing.T) {
	mailer := &recordingMailer{}
	h := newHarness(t, controllers.WithMailer(mailer))
	alice := h.signup("alice", "student")
	mentor := h.signup("mona", "mentor")
	id := h.createSubmission(alice, "Loop")

	rec := h.do(http.MethodPost, "/api/reviews", mentor, map[string]any{
		"submission_id": id, "overall_comment": "ok", "rating": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	h.backend.Wait()
	assert.Equal(t, []string{"alice@example.com"}, mailer.sent)

	rec = h.do(http.MethodGet, "/api/notifications", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["unread_count"])
	items := body["notifications"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, false, first["is_read"])
	assert.Contains(t, first["message"], "Loop")

	rec = h.do(http.MethodPut, fmt.Sprintf("/api/notifications/%v/read", first["id"]), alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/api/notifications", alice, nil)
	assert.EqualValues(t, 0, decode(t, rec)["unread_count"])

	rec = h.do(http.MethodPut, fmt.Sprintf("/api/notifications/%v/read", first["id"]), mentor, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTagsCatalogue(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice", "student")
	h.createSubmission(alice, "One")
	h.createSubmission(alice, "Two")

	rec := h.do(http.MethodGet, "/api/tags", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode(t, rec)["tags"].([]any)
	require.Len(t, tags, 1)
	assert.Equal(t, "loops", tags[0].(map[string]any)["name"])
}

func TestAnalyticsByRole(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	h := newHarness(t, controllers.WithClock(func() time.Time { return now }))
	alice := h.signup("alice", "student")
	mentor := h.signup("mona", "mentor")
	admin := h.signup("root", "admin")
	id := h.createSubmission(alice, "Loop")
	h.createSubmission(alice, "Other")

	now = now.Add(48 * time.Hour)
	rec := h.do(http.MethodPost, "/api/reviews", mentor, map[string]any{
		"submission_id": id, "overall_comment": "ok", "rating": 8,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/api/analytics/student", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode(t, rec)["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["total_submissions"])
	assert.EqualValues(t, 1, summary["total_reviews_received"])
	assert.EqualValues(t, 8, summary["avg_rating"])
	assert.EqualValues(t, 2, summary["avg_review_time_days"])

	rec = h.do(http.MethodGet, "/api/analytics/mentor", mentor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mentorBody := decode(t, rec)
	assert.EqualValues(t, 1, mentorBody["summary"].(map[string]any)["students_helped"])
	recent := mentorBody["recent_activity"].([]any)[0].(map[string]any)
	assert.Equal(t, "Loop", recent["submission_title"])
	assert.Equal(t, "alice", recent["student_name"])

	rec = h.do(http.MethodGet, "/api/analytics/admin", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	adminBody := decode(t, rec)
	assert.EqualValues(t, 2, adminBody["summary"].(map[string]any)["total_submissions"])
	assert.Len(t, adminBody["users_by_role"], 3)

	rec = h.do(http.MethodGet, "/api/analytics/admin", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Only admins can access platform analytics", decode(t, rec)["detail"])
}

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := controllers.NewBackend(middleware.NewTokenIssuer("s", 1), controllers.WithBcryptCost(bcrypt.MinCost))
	router := gin.New()
	routes.SetupRoutes(router, backend, routes.Limits{LoginPerMinute: 2, RegisterPerMinute: 2})
	h := &harness{t: t, router: router, backend: backend}

	body := map[string]string{"email": "x@example.com", "password": "password123"}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, h.do(http.MethodPost, "/api/auth/login", "", body).Code)
}
