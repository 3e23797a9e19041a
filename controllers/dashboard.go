package controllers

import (
	"math"
	"net/http"
	"sort"
	"time"

	"code-review-client/models"

	"github.com/gin-gonic/gin"
)

const (
	timelineWindow = 180 * 24 * time.Hour
	recentLimit    = 5
	leaderboardLen = 5
)

// StudentAnalytics summarises the calling student's submissions.
func (b *Backend) StudentAnalytics(c *gin.Context) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.requireAnalyticsRole(c, models.RoleStudent, "Only students can access student analytics")
	if !ok {
		return
	}

	now := b.timestamp()
	since := now.Add(-timelineWindow)

	var subs []*submissionRecord
	for _, s := range b.submissions {
		if s.UserID == u.ID {
			subs = append(subs, s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })

	var (
		received    []*reviewRecord
		ratingSum   float64
		latencySum  float64
		submitted   = newMonthCounter()
		ratingMonth = newMonthCounter()
		ratingTotal = map[string]float64{}
		languages   = map[string]int{}
		statuses    = map[string]int{}
	)
	for _, s := range subs {
		if !s.CreatedAt.Before(since) {
			submitted.add(s.CreatedAt)
		}
		languages[s.Language]++
		statuses[string(s.Status)]++
		for _, r := range b.reviewsFor(s.ID) {
			received = append(received, r)
			ratingSum += float64(r.Rating)
			latencySum += r.CreatedAt.Sub(s.CreatedAt).Hours() / 24
			if !r.CreatedAt.Before(since) {
				key := ratingMonth.add(r.CreatedAt)
				ratingTotal[key] += float64(r.Rating)
			}
		}
	}

	out := models.StudentAnalytics{
		Summary: models.StudentSummary{
			TotalSubmissions:     len(subs),
			TotalReviewsReceived: len(received),
		},
		SubmissionsTimeline: submitted.counts(),
		RatingTimeline:      []models.MonthRating{},
		LanguageBreakdown:   nameCounts(languages),
		StatusBreakdown:     []models.StatusCount{},
		RecentActivity:      []models.ActivityItem{},
	}
	if n := len(received); n > 0 {
		out.Summary.AvgRating = round(ratingSum/float64(n), 2)
		out.Summary.AvgReviewTimeDays = round(latencySum/float64(n), 1)
	}
	for _, mc := range ratingMonth.counts() {
		out.RatingTimeline = append(out.RatingTimeline, models.MonthRating{
			Month:  mc.Month,
			Rating: round(ratingTotal[mc.Month]/float64(mc.Count), 2),
		})
	}
	for _, nc := range nameCounts(statuses) {
		out.StatusBreakdown = append(out.StatusBreakdown, models.StatusCount{Status: nc.Name, Count: nc.Count})
	}

	recent := append([]*submissionRecord(nil), subs...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	for i, s := range recent {
		if i == recentLimit {
			break
		}
		out.RecentActivity = append(out.RecentActivity, models.ActivityItem{
			ID:          s.ID,
			Title:       s.Title,
			Language:    s.Language,
			Status:      string(s.Status),
			ReviewCount: len(b.reviewsFor(s.ID)),
			CreatedAt:   models.NewTimestamp(s.CreatedAt),
		})
	}

	c.JSON(http.StatusOK, out)
}

// MentorAnalytics summarises the calling mentor's reviews.
func (b *Backend) MentorAnalytics(c *gin.Context) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.requireAnalyticsRole(c, models.RoleMentor, "Only mentors can access mentor analytics")
	if !ok {
		return
	}

	now := b.timestamp()
	since := now.Add(-timelineWindow)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		given        []*reviewRecord
		ratingSum    float64
		latencySum   float64
		latencyN     int
		timeline     = newMonthCounter()
		languages    = map[string]int{}
		ratings      = map[int]int{}
		helped       = map[int]bool{}
		helpedMonth  = map[int]bool{}
		reviewsMonth int
	)
	for _, r := range b.reviews {
		if r.ReviewerID != u.ID {
			continue
		}
		given = append(given, r)
		ratingSum += float64(r.Rating)
		ratings[r.Rating]++
		if !r.CreatedAt.Before(since) {
			timeline.add(r.CreatedAt)
		}
		sub, ok := b.submissions[r.SubmissionID]
		if ok {
			languages[sub.Language]++
			helped[sub.UserID] = true
			latencySum += r.CreatedAt.Sub(sub.CreatedAt).Hours() / 24
			latencyN++
		}
		if !r.CreatedAt.Before(monthStart) {
			reviewsMonth++
			if ok {
				helpedMonth[sub.UserID] = true
			}
		}
	}

	out := models.MentorAnalytics{
		Summary: models.MentorSummary{
			TotalReviewsGiven:       len(given),
			StudentsHelped:          len(helped),
			ReviewsThisMonth:        reviewsMonth,
			StudentsHelpedThisMonth: len(helpedMonth),
		},
		ReviewsTimeline:    timeline.counts(),
		LanguageBreakdown:  nameCounts(languages),
		RatingDistribution: []models.RatingCount{},
		RecentActivity:     []models.ActivityItem{},
	}
	if n := len(given); n > 0 {
		out.Summary.AvgRatingGiven = round(ratingSum/float64(n), 2)
	}
	if latencyN > 0 {
		out.Summary.AvgResponseTimeDays = round(latencySum/float64(latencyN), 1)
	}
	for rating := models.MinRating; rating <= models.MaxRating; rating++ {
		if n := ratings[rating]; n > 0 {
			out.RatingDistribution = append(out.RatingDistribution, models.RatingCount{Rating: rating, Count: n})
		}
	}

	recent := append([]*reviewRecord(nil), given...)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	for i, r := range recent {
		if i == recentLimit {
			break
		}
		item := models.ActivityItem{
			ID:              r.ID,
			SubmissionTitle: "Unknown",
			StudentName:     "Unknown",
			Rating:          r.Rating,
			CreatedAt:       models.NewTimestamp(r.CreatedAt),
		}
		if sub, ok := b.submissions[r.SubmissionID]; ok {
			item.SubmissionTitle = sub.Title
			if student, ok := b.users[sub.UserID]; ok {
				item.StudentName = student.Name
			}
		}
		out.RecentActivity = append(out.RecentActivity, item)
	}

	c.JSON(http.StatusOK, out)
}

// AdminAnalytics reports platform-wide totals.
func (b *Backend) AdminAnalytics(c *gin.Context) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, ok := b.requireAnalyticsRole(c, models.RoleAdmin, "Only admins can access platform analytics"); !ok {
		return
	}

	roles := map[models.Role]int{}
	for _, u := range b.users {
		roles[u.Role]++
	}
	submissionsBy := map[int]int{}
	for _, s := range b.submissions {
		submissionsBy[s.UserID]++
	}
	reviewsBy := map[int]int{}
	for _, r := range b.reviews {
		reviewsBy[r.ReviewerID]++
	}

	out := models.AdminAnalytics{
		Summary: models.AdminSummary{
			TotalSubmissions: len(b.submissions),
			TotalReviews:     len(b.reviews),
		},
		UsersByRole:        []models.RoleCount{},
		MostActiveStudents: []models.ActiveStudent{},
		MostActiveMentors:  []models.ActiveMentor{},
	}
	for _, role := range []models.Role{models.RoleStudent, models.RoleMentor, models.RoleAdmin} {
		if n := roles[role]; n > 0 {
			out.UsersByRole = append(out.UsersByRole, models.RoleCount{Role: role, Count: n})
		}
	}
	for _, e := range b.leaderboard(submissionsBy) {
		out.MostActiveStudents = append(out.MostActiveStudents, models.ActiveStudent{Name: e.Name, Submissions: e.Count})
	}
	for _, e := range b.leaderboard(reviewsBy) {
		out.MostActiveMentors = append(out.MostActiveMentors, models.ActiveMentor{Name: e.Name, Reviews: e.Count})
	}

	c.JSON(http.StatusOK, out)
}

func (b *Backend) requireAnalyticsRole(c *gin.Context, role models.Role, detail string) (*account, bool) {
	u, ok := b.currentUser(c)
	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return nil, false
	}
	if u.Role != role {
		respondDetail(c, http.StatusForbidden, detail)
		return nil, false
	}
	return u, true
}

// leaderboard ranks users by count, highest first, ties by id.
func (b *Backend) leaderboard(counts map[int]int) []models.NameCount {
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if len(ids) > leaderboardLen {
		ids = ids[:leaderboardLen]
	}
	out := make([]models.NameCount, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.NameCount{Name: b.userSummary(id).Name, Count: counts[id]})
	}
	return out
}

// monthCounter buckets timestamps by calendar month, labelled like "Jan 2006".
type monthCounter struct {
	buckets map[time.Time]int
}

func newMonthCounter() *monthCounter {
	return &monthCounter{buckets: map[time.Time]int{}}
}

func (m *monthCounter) add(t time.Time) string {
	t = t.UTC()
	key := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	m.buckets[key]++
	return key.Format("Jan 2006")
}

func (m *monthCounter) counts() []models.MonthCount {
	keys := make([]time.Time, 0, len(m.buckets))
	for k := range m.buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	out := make([]models.MonthCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.MonthCount{Month: k.Format("Jan 2006"), Count: m.buckets[k]})
	}
	return out
}

func nameCounts(m map[string]int) []models.NameCount {
	out := make([]models.NameCount, 0, len(m))
	for name, n := range m {
		out = append(out, models.NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
