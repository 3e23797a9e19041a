package services_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"code-review-client/controllers"
	"code-review-client/gateway"
	"code-review-client/middleware"
	"code-review-client/models"
	"code-review-client/routes"
	"code-review-client/services"
	"code-review-client/session"
	"code-review-client/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fixture is one client device talking to a development backend.
type fixture struct {
	t        *testing.T
	backend  *controllers.Backend
	kv       *storage.MemoryStore
	sessions *session.Store
	api      *gateway.Gateway

	auth          *services.AuthService
	submissions   *services.SubmissionService
	reviews       *services.ReviewService
	acks          *services.AckStore
	notifications *services.NotificationService
	analytics     *services.AnalyticsService
	tags          *services.TagService

	mu   sync.Mutex
	hits []string
}

func newFixture(t *testing.T, opts ...services.NotificationOption) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{t: t}
	f.backend = controllers.NewBackend(middleware.NewTokenIssuer("test-secret", 1),
		controllers.WithBcryptCost(bcrypt.MinCost))
	router := gin.New()
	router.Use(func(c *gin.Context) {
		f.mu.Lock()
		f.hits = append(f.hits, c.Request.Method+" "+c.Request.URL.Path)
		f.mu.Unlock()
		c.Next()
	})
	routes.SetupRoutes(router, f.backend, routes.Limits{LoginPerMinute: 1000, RegisterPerMinute: 1000})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	f.kv = storage.NewMemoryStore()
	f.sessions = session.New(f.kv)
	api, err := gateway.New(gateway.Config{BaseURL: server.URL, Sessions: f.sessions})
	require.NoError(t, err)
	f.api = api

	f.auth = services.NewAuthService(api, f.sessions, nil)
	f.submissions = services.NewSubmissionService(api, f.sessions, nil)
	f.reviews = services.NewReviewService(api, nil)
	f.acks = services.NewAckStore(f.kv, nil)
	f.notifications = services.NewNotificationService(api, f.acks, nil, opts...)
	f.analytics = services.NewAnalyticsService(api)
	f.tags = services.NewTagService(api)
	return f
}

// register creates an account without signing in.
func (f *fixture) register(name string, role models.Role) {
	f.t.Helper()
	_, err := f.auth.Register(context.Background(), models.RegisterRequest{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password123",
		Role:     role,
	})
	require.NoError(f.t, err)
}

// login signs name in on this device, replacing any previous session.
func (f *fixture) login(name string) models.Identity {
	f.t.Helper()
	sess, err := f.auth.Login(context.Background(), name+"@example.com", "password123")
	require.NoError(f.t, err)
	return sess.Identity
}

func (f *fixture) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hits...)
}

func (f *fixture) resetRequests() {
	f.mu.Lock()
	f.hits = nil
	f.mu.Unlock()
}

// fakeAPI answers CallJSON from canned replies keyed by "METHOD endpoint".
type fakeAPI struct {
	mu      sync.Mutex
	replies map[string]any
	calls   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: map[string]any{}}
}

func (f *fakeAPI) on(method, endpoint string, reply any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[method+" "+endpoint] = reply
}

func (f *fakeAPI) CallJSON(_ context.Context, method, endpoint string, _, out any) error {
	key := method + " " + endpoint
	f.mu.Lock()
	f.calls = append(f.calls, key)
	reply, ok := f.replies[key]
	f.mu.Unlock()

	if !ok {
		return &gateway.RequestError{Status: 404, Message: "Not Found"}
	}
	if err, isErr := reply.(error); isErr {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeAPI) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fixedIdentity is an IdentitySource for unit tests.
type fixedIdentity struct {
	identity models.Identity
	ok       bool
}

func (f fixedIdentity) Identity() (models.Identity, bool) { return f.identity, f.ok }
