package models

type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type MonthRating struct {
	Month  string  `json:"month"`
	Rating float64 `json:"rating"`
}

type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type RatingCount struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

type RoleCount struct {
	Role  Role `json:"role"`
	Count int  `json:"count"`
}

type ActivityItem struct {
	ID              int       `json:"id"`
	Title           string    `json:"title,omitempty"`
	SubmissionTitle string    `json:"submission_title,omitempty"`
	Language        string    `json:"language,omitempty"`
	Status          string    `json:"status,omitempty"`
	ReviewCount     int       `json:"review_count,omitempty"`
	StudentName     string    `json:"student_name,omitempty"`
	Rating          int       `json:"rating,omitempty"`
	CreatedAt       Timestamp `json:"created_at"`
}

type StudentSummary struct {
	TotalSubmissions     int     `json:"total_submissions"`
	TotalReviewsReceived int     `json:"total_reviews_received"`
	AvgRating            float64 `json:"avg_rating"`
	AvgReviewTimeDays    float64 `json:"avg_review_time_days"`
	TotalAIAnalyses      int     `json:"total_ai_analyses"`
}

type StudentAnalytics struct {
	Summary             StudentSummary `json:"summary"`
	SubmissionsTimeline []MonthCount   `json:"submissions_timeline"`
	RatingTimeline      []MonthRating  `json:"rating_timeline"`
	LanguageBreakdown   []NameCount    `json:"language_breakdown"`
	StatusBreakdown     []StatusCount  `json:"status_breakdown"`
	RecentActivity      []ActivityItem `json:"recent_activity"`
}

type MentorSummary struct {
	TotalReviewsGiven       int     `json:"total_reviews_given"`
	StudentsHelped          int     `json:"students_helped"`
	AvgRatingGiven          float64 `json:"avg_rating_given"`
	AvgResponseTimeDays     float64 `json:"avg_response_time_days"`
	ReviewsThisMonth        int     `json:"reviews_this_month"`
	StudentsHelpedThisMonth int     `json:"students_helped_this_month"`
}

type MentorAnalytics struct {
	Summary            MentorSummary  `json:"summary"`
	ReviewsTimeline    []MonthCount   `json:"reviews_timeline"`
	LanguageBreakdown  []NameCount    `json:"language_breakdown"`
	RatingDistribution []RatingCount  `json:"rating_distribution"`
	RecentActivity     []ActivityItem `json:"recent_activity"`
}

type AdminSummary struct {
	TotalSubmissions int `json:"total_submissions"`
	TotalReviews     int `json:"total_reviews"`
}

type ActiveStudent struct {
	Name        string `json:"name"`
	Submissions int    `json:"submissions"`
}

type ActiveMentor struct {
	Name    string `json:"name"`
	Reviews int    `json:"reviews"`
}

type AdminAnalytics struct {
	Summary            AdminSummary    `json:"summary"`
	UsersByRole        []RoleCount     `json:"users_by_role"`
	MostActiveStudents []ActiveStudent `json:"most_active_students"`
	MostActiveMentors  []ActiveMentor  `json:"most_active_mentors"`
}

// CountFor returns the number of users holding role, and whether the role was reported.
func (a *AdminAnalytics) CountFor(role Role) (int, bool) {
	for _, rc := range a.UsersByRole {
		if rc.Role == role {
			return rc.Count, true
		}
	}
	return 0, false
}
