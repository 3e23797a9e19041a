package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"code-review-client/models"
	"code-review-client/utils"

	"github.com/sirupsen/logrus"
)

// ComposeReview validates a review and assembles the request body.
// Annotation rows with blank text are unfilled rows and are dropped; the
// rest keep their input order.
func ComposeReview(submissionID int, overallComment string, rating int, drafts []models.AnnotationDraft) (models.ReviewRequest, error) {
	comment := strings.TrimSpace(overallComment)
	if comment == "" {
		return models.ReviewRequest{}, invalid("overall_comment", "must not be empty")
	}
	if rating < models.MinRating || rating > models.MaxRating {
		return models.ReviewRequest{}, invalid("rating",
			fmt.Sprintf("must be between %d and %d", models.MinRating, models.MaxRating))
	}

	annotations := make([]models.Annotation, 0, len(drafts))
	for i, draft := range drafts {
		text := strings.TrimSpace(draft.CommentText)
		if text == "" {
			continue
		}
		line, err := utils.ParseLineNumber(draft.LineNumber)
		if err != nil {
			return models.ReviewRequest{}, invalid(fmt.Sprintf("annotations[%d].line_number", i), err.Error())
		}
		annotations = append(annotations, models.Annotation{CommentText: text, LineNumber: line})
	}

	return models.ReviewRequest{
		SubmissionID:   submissionID,
		OverallComment: comment,
		Rating:         rating,
		Annotations:    annotations,
	}, nil
}

// ReviewService posts reviews. Each call creates a new review; nothing is
// deduplicated.
type ReviewService struct {
	api API
	log *logrus.Entry
}

func NewReviewService(api API, logger *logrus.Logger) *ReviewService {
	return &ReviewService{api: api, log: componentLog(logger, "reviews")}
}

func (s *ReviewService) SubmitReview(ctx context.Context, submissionID int, overallComment string, rating int, drafts []models.AnnotationDraft) (*models.Review, error) {
	req, err := ComposeReview(submissionID, overallComment, rating, drafts)
	if err != nil {
		return nil, err
	}

	var review models.Review
	if err := s.api.CallJSON(ctx, http.MethodPost, "/api/reviews", req, &review); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"submission_id": submissionID,
		"review_id":     review.ID,
		"annotations":   len(req.Annotations),
	}).Info("review submitted")
	return &review, nil
}

// ForSubmission lists the reviews posted on a submission, oldest first.
func (s *ReviewService) ForSubmission(ctx context.Context, submissionID int) ([]models.Review, error) {
	var out struct {
		Reviews []models.Review `json:"reviews"`
	}
	endpoint := fmt.Sprintf("/api/reviews/submission/%d", submissionID)
	if err := s.api.CallJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	if out.Reviews == nil {
		out.Reviews = []models.Review{}
	}
	return out.Reviews, nil
}
