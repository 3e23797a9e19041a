package services

import (
	"context"
	"fmt"
	"net/http"

	"code-review-client/models"
)

// AnalyticsService reads the role-scoped dashboards.
type AnalyticsService struct {
	api API
}

func NewAnalyticsService(api API) *AnalyticsService {
	return &AnalyticsService{api: api}
}

func (s *AnalyticsService) Student(ctx context.Context) (*models.StudentAnalytics, error) {
	var out models.StudentAnalytics
	if err := s.api.CallJSON(ctx, http.MethodGet, "/api/analytics/student", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AnalyticsService) Mentor(ctx context.Context) (*models.MentorAnalytics, error) {
	var out models.MentorAnalytics
	if err := s.api.CallJSON(ctx, http.MethodGet, "/api/analytics/mentor", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AnalyticsService) Admin(ctx context.Context) (*models.AdminAnalytics, error) {
	var out models.AdminAnalytics
	if err := s.api.CallJSON(ctx, http.MethodGet, "/api/analytics/admin", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForIdentity fetches the dashboard that matches identity's role. The result
// is a *models.StudentAnalytics, *models.MentorAnalytics or *models.AdminAnalytics.
func (s *AnalyticsService) ForIdentity(ctx context.Context, identity models.Identity) (any, error) {
	switch identity.Role {
	case models.RoleStudent:
		return s.Student(ctx)
	case models.RoleMentor:
		return s.Mentor(ctx)
	case models.RoleAdmin:
		return s.Admin(ctx)
	}
	return nil, fmt.Errorf("no analytics for role %q", identity.Role)
}

// AdminRatios are derived platform figures. A nil field is "not applicable":
// its divisor was zero or not reported.
type AdminRatios struct {
	ReviewCoverage        *float64
	SubmissionsPerStudent *float64
	ReviewsPerMentor      *float64
	StudentsPerMentor     *float64
}

func ComputeAdminRatios(a *models.AdminAnalytics) AdminRatios {
	students, _ := a.CountFor(models.RoleStudent)
	mentors, _ := a.CountFor(models.RoleMentor)
	return AdminRatios{
		ReviewCoverage:        ratio(a.Summary.TotalReviews, a.Summary.TotalSubmissions),
		SubmissionsPerStudent: ratio(a.Summary.TotalSubmissions, students),
		ReviewsPerMentor:      ratio(a.Summary.TotalReviews, mentors),
		StudentsPerMentor:     ratio(students, mentors),
	}
}

func ratio(num, den int) *float64 {
	if den <= 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

// TagService lists the tag catalogue.
type TagService struct {
	api API
}

func NewTagService(api API) *TagService {
	return &TagService{api: api}
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var out struct {
		Tags []models.Tag `json:"tags"`
	}
	if err := s.api.CallJSON(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	if out.Tags == nil {
		out.Tags = []models.Tag{}
	}
	return out.Tags, nil
}
