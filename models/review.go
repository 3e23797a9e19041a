package models

const (
	MinRating = 1
	MaxRating = 10
)

// Review is a mentor's evaluation of a submission. Reviews are immutable.
type Review struct {
	ID             int          `json:"id"`
	SubmissionID   int          `json:"submission_id"`
	ReviewerID     int          `json:"reviewer_id,omitempty"`
	Reviewer       *UserSummary `json:"reviewer,omitempty"`
	OverallComment string       `json:"overall_comment"`
	Rating         int          `json:"rating"`
	Annotations    []Annotation `json:"annotations"`
	CreatedAt      Timestamp    `json:"created_at"`
}

// Annotation is a comment inside a review; LineNumber 0 means not tied to a line.
type Annotation struct {
	CommentText string `json:"comment_text"`
	LineNumber  int    `json:"line_number"`
}

// AnnotationDraft is an annotation row as typed by the reviewer, before parsing.
type AnnotationDraft struct {
	CommentText string
	LineNumber  string
}

// ReviewRequest is the body posted to the reviews endpoint.
type ReviewRequest struct {
	SubmissionID   int          `json:"submission_id"`
	OverallComment string       `json:"overall_comment"`
	Rating         int          `json:"rating"`
	Annotations    []Annotation `json:"annotations"`
}
