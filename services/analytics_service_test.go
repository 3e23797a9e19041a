package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"code-review-client/models"
	"code-review-client/services"
	"code-review-client/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeAdminRatios(t *testing.T) {
	a := &models.AdminAnalytics{
		Summary: models.AdminSummary{TotalSubmissions: 10, TotalReviews: 5},
		UsersByRole: []models.RoleCount{
			{Role: models.RoleStudent, Count: 4},
			{Role: models.RoleMentor, Count: 2},
		},
	}
	r := services.ComputeAdminRatios(a)
	require.NotNil(t, r.ReviewCoverage)
	assert.InDelta(t, 0.5, *r.ReviewCoverage, 1e-9)
	assert.InDelta(t, 2.5, *r.SubmissionsPerStudent, 1e-9)
	assert.InDelta(t, 2.5, *r.ReviewsPerMentor, 1e-9)
	assert.InDelta(t, 2.0, *r.StudentsPerMentor, 1e-9)
}

func TestComputeAdminRatiosNotApplicable(t *testing.T) {
	r := services.ComputeAdminRatios(&models.AdminAnalytics{
		Summary:     models.AdminSummary{TotalSubmissions: 0, TotalReviews: 3},
		UsersByRole: []models.RoleCount{{Role: models.RoleStudent, Count: 2}},
	})
	assert.Nil(t, r.ReviewCoverage)
	assert.NotNil(t, r.SubmissionsPerStudent)
	assert.Nil(t, r.ReviewsPerMentor)
	assert.Nil(t, r.StudentsPerMentor)
}

func TestAnalyticsForIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register("alice", models.RoleStudent)
	f.register("mona", models.RoleMentor)
	f.register("root", models.RoleAdmin)

	student := f.login("alice")
	_, err := f.submissions.Create(ctx, validDraft())
	require.NoError(t, err)
	dash, err := f.analytics.ForIdentity(ctx, student)
	require.NoError(t, err)
	sa, ok := dash.(*models.StudentAnalytics)
	require.True(t, ok)
	assert.Equal(t, 1, sa.Summary.TotalSubmissions)

	admin := f.login("root")
	dash, err = f.analytics.ForIdentity(ctx, admin)
	require.NoError(t, err)
	aa, ok := dash.(*models.AdminAnalytics)
	require.True(t, ok)
	students, ok := aa.CountFor(models.RoleStudent)
	assert.True(t, ok)
	assert.Equal(t, 1, students)

	_, err = f.analytics.Mentor(ctx)
	assert.Error(t, err)
}

func TestPollerReportsUnreadChanges(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.on(http.MethodGet, "/api/notifications", json.RawMessage(`[{"id":1},{"id":2}]`))
	svc := services.NewNotificationService(api, services.NewAckStore(storage.NewMemoryStore(), nil), nil)

	var (
		mu   sync.Mutex
		seen []int
	)
	poller := services.NewNotificationPoller(svc, func(unread int) {
		mu.Lock()
		seen = append(seen, unread)
		mu.Unlock()
	}, nil)

	poller.Poll(ctx)
	poller.Poll(ctx)
	require.NoError(t, svc.AcknowledgeAll(ctx, []int{1}))
	poller.Poll(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 1}, seen)
}

func TestPollerStart(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.on(http.MethodGet, "/api/notifications", json.RawMessage(`[]`))
	svc := services.NewNotificationService(api, services.NewAckStore(storage.NewMemoryStore(), nil), nil)

	calls := make(chan int, 1)
	poller := services.NewNotificationPoller(svc, func(unread int) { calls <- unread }, nil)

	assert.Error(t, poller.Start(ctx, "not a schedule"))

	require.NoError(t, poller.Start(ctx, "@every 1h"))
	defer poller.Stop()
	assert.Equal(t, 0, <-calls)
	assert.Error(t, poller.Start(ctx, "@every 1h"))
}
