package models

// SubmissionStatus is derived by the server: pending until the first review
// exists, reviewed afterwards.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusReviewed SubmissionStatus = "reviewed"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxCodeLength        = 50000
)

type Submission struct {
	ID          int              `json:"id"`
	UserID      int              `json:"user_id,omitempty"`
	User        *UserSummary     `json:"user,omitempty"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CodeContent string           `json:"code_content"`
	Language    string           `json:"language"`
	Tags        []string         `json:"tags"`
	Status      SubmissionStatus `json:"status"`
	ReviewCount int              `json:"review_count,omitempty"`
	CreatedAt   Timestamp        `json:"created_at"`
	Reviews     []Review         `json:"reviews,omitempty"`
}

// OwnerID resolves the owning user from whichever reference the payload carried.
func (s *Submission) OwnerID() int {
	if s.User != nil && s.User.ID != 0 {
		return s.User.ID
	}
	return s.UserID
}

// SubmissionDraft is the payload of a create call.
type SubmissionDraft struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=2000"`
	CodeContent string   `json:"code_content" validate:"required,max=50000"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
}

// SubmissionPatch is a full replace of the editable text fields.
type SubmissionPatch struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	CodeContent string `json:"code_content" validate:"required,max=50000"`
}

// SubmissionFilter maps to the list endpoint query parameters.
type SubmissionFilter struct {
	Skip     int
	Limit    int
	Status   SubmissionStatus
	Language string
}

type SubmissionPage struct {
	Submissions []Submission `json:"submissions"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	Pages       int          `json:"pages"`
	Showing     int          `json:"showing"`
}
