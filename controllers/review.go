package controllers

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"code-review-client/models"

	"github.com/gin-gonic/gin"
)

type createReviewReq struct {
	SubmissionID   int                 `json:"submission_id"`
	OverallComment string              `json:"overall_comment"`
	Rating         int                 `json:"rating"`
	Annotations    []models.Annotation `json:"annotations"`
}

// CreateReview records a mentor's review. The submission becomes reviewed and
// its owner is notified.
func (b *Backend) CreateReview(c *gin.Context) {
	var req createReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.OverallComment = strings.TrimSpace(req.OverallComment)
	if req.OverallComment == "" {
		respondInvalid(c, "overall_comment", "field required")
		return
	}
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		respondInvalid(c, "rating", fmt.Sprintf("must be between %d and %d", models.MinRating, models.MaxRating))
		return
	}
	annotations := make([]models.Annotation, 0, len(req.Annotations))
	for i, a := range req.Annotations {
		a.CommentText = strings.TrimSpace(a.CommentText)
		if a.CommentText == "" {
			respondInvalid(c, fmt.Sprintf("annotations.%d.comment_text", i), "field required")
			return
		}
		if a.LineNumber < 0 {
			respondInvalid(c, fmt.Sprintf("annotations.%d.line_number", i), "must be greater than or equal to 0")
			return
		}
		annotations = append(annotations, a)
	}

	b.mu.Lock()
	u, ok := b.currentUser(c)
	if !ok {
		b.mu.Unlock()
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	sub, ok := b.submissions[req.SubmissionID]
	if !ok {
		b.mu.Unlock()
		respondDetail(c, http.StatusNotFound, "Submission not found.")
		return
	}

	now := b.timestamp()
	b.lastReviewID++
	rec := &reviewRecord{
		ID:             b.lastReviewID,
		SubmissionID:   sub.ID,
		ReviewerID:     u.ID,
		OverallComment: req.OverallComment,
		Rating:         req.Rating,
		Annotations:    annotations,
		CreatedAt:      now,
	}
	b.reviews = append(b.reviews, rec)
	sub.Status = models.StatusReviewed

	message := fmt.Sprintf("Your submission %q was reviewed by %s.", sub.Title, u.Name)
	b.lastNotificationID++
	b.notifications = append(b.notifications, &notificationRecord{
		ID:        b.lastNotificationID,
		UserID:    sub.UserID,
		Message:   message,
		CreatedAt: now,
	})

	view := b.reviewView(rec)
	var ownerEmail, ownerName string
	if owner, ok := b.users[sub.UserID]; ok {
		ownerEmail, ownerName = owner.Email, owner.Name
	}
	b.mu.Unlock()

	b.log.WithField("review_id", rec.ID).WithField("submission_id", sub.ID).Info("review created")

	if b.mailer != nil && ownerEmail != "" {
		subject := "Your submission was reviewed"
		html := buildReviewEmailHTML(subject, ownerName, message)
		to := []string{ownerEmail}
		b.mail.Add(1)
		go func() {
			defer b.mail.Done()
			b.sendMailSafe(to, subject, html)
		}()
	}

	c.JSON(http.StatusCreated, view)
}

// ListReviews returns the reviews of one submission.
func (b *Backend) ListReviews(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		respondDetail(c, http.StatusNotFound, "Submission not found")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.currentUser(c)
	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	sub, ok := b.submissions[id]
	if !ok {
		respondDetail(c, http.StatusNotFound, "Submission not found")
		return
	}
	if u.Role == models.RoleStudent && sub.UserID != u.ID {
		respondDetail(c, http.StatusForbidden, "Not authorized")
		return
	}

	out := []models.Review{}
	for _, r := range b.reviewsFor(id) {
		out = append(out, b.reviewView(r))
	}
	c.JSON(http.StatusOK, gin.H{"reviews": out})
}

// reviewsFor lists reviews oldest first; callers must hold b.mu.
func (b *Backend) reviewsFor(submissionID int) []*reviewRecord {
	var out []*reviewRecord
	for _, r := range b.reviews {
		if r.SubmissionID == submissionID {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) reviewView(r *reviewRecord) models.Review {
	annotations := r.Annotations
	if annotations == nil {
		annotations = []models.Annotation{}
	}
	return models.Review{
		ID:             r.ID,
		SubmissionID:   r.SubmissionID,
		ReviewerID:     r.ReviewerID,
		Reviewer:       b.userSummary(r.ReviewerID),
		OverallComment: r.OverallComment,
		Rating:         r.Rating,
		Annotations:    annotations,
		CreatedAt:      models.NewTimestamp(r.CreatedAt),
	}
}

func buildReviewEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "there"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Hi %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
  <p style="margin:0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}

func (b *Backend) sendMailSafe(to []string, subject, html string) {
	if err := b.mailer.Send(to, subject, html); err != nil {
		b.log.WithError(err).WithField("to", to).Warn("review email send failed")
	}
}
