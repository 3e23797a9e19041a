package controllers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"code-review-client/models"
	"code-review-client/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CreateSubmission stores a new pending submission for the calling student.
func (b *Backend) CreateSubmission(c *gin.Context) {
	var draft models.SubmissionDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respondDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	draft.Title = utils.SanitizeInput(draft.Title)
	draft.Description = utils.SanitizeInput(draft.Description)
	draft.Language = strings.TrimSpace(draft.Language)
	draft.Tags = utils.NormalizeTags(draft.Tags)
	if strings.TrimSpace(draft.CodeContent) == "" {
		draft.CodeContent = ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.currentUser(c)
	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if u.Role != models.RoleStudent {
		b.log.WithField("user_id", u.ID).Warn("non-student attempted to create a submission")
		respondDetail(c, http.StatusForbidden, "Only students can create submissions.")
		return
	}
	if fe := utils.ValidateStruct(&draft); fe != nil {
		respondInvalid(c, fe.Field, fe.Message)
		return
	}

	b.lastSubmissionID++
	rec := &submissionRecord{
		ID:          b.lastSubmissionID,
		UserID:      u.ID,
		Title:       draft.Title,
		Description: draft.Description,
		CodeContent: draft.CodeContent,
		Language:    draft.Language,
		Tags:        draft.Tags,
		Status:      models.StatusPending,
		CreatedAt:   b.timestamp(),
	}
	b.submissions[rec.ID] = rec
	b.ensureTags(rec.Tags)

	b.log.WithField("submission_id", rec.ID).WithField("user_id", u.ID).Info("submission created")
	c.JSON(http.StatusCreated, b.submissionDetail(rec, false))
}

// ListSubmissions pages through submissions. Students only see their own.
func (b *Backend) ListSubmissions(c *gin.Context) {
	skip, ok := queryInt(c, "skip", 0)
	if !ok || skip < 0 {
		respondInvalid(c, "skip", "must be greater than or equal to 0")
		return
	}
	limit, ok := queryInt(c, "limit", defaultPageSize)
	if !ok || limit < 1 || limit > maxPageSize {
		respondInvalid(c, "limit", "must be between 1 and 100")
		return
	}
	statusFilter := models.SubmissionStatus(strings.TrimSpace(c.Query("status_filter")))
	language := strings.TrimSpace(c.Query("language"))

	b.mu.RLock()
	defer b.mu.RUnlock()

	u, ok := b.currentUser(c)
	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	var matched []*submissionRecord
	for _, rec := range b.submissions {
		if u.Role == models.RoleStudent && rec.UserID != u.ID {
			continue
		}
		if statusFilter != "" && rec.Status != statusFilter {
			continue
		}
		if language != "" && rec.Language != language {
			continue
		}
		matched = append(matched, rec)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	page := []*submissionRecord{}
	if skip < total {
		end := skip + limit
		if end > total {
			end = total
		}
		page = matched[skip:end]
	}

	items := make([]models.Submission, 0, len(page))
	for _, rec := range page {
		item := models.Submission{
			ID:          rec.ID,
			Title:       rec.Title,
			Language:    rec.Language,
			Status:      rec.Status,
			CreatedAt:   models.NewTimestamp(rec.CreatedAt),
			ReviewCount: len(b.reviewsFor(rec.ID)),
		}
		if u.Role != models.RoleStudent {
			item.User = b.userSummary(rec.UserID)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, models.SubmissionPage{
		Submissions: items,
		Total:       total,
		Page:        skip/limit + 1,
		Pages:       (total + limit - 1) / limit,
		Showing:     len(items),
	})
}

// GetSubmission returns a submission with its reviews.
func (b *Backend) GetSubmission(c *gin.Context) {
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
	rec, ok := b.submissions[id]
	if !ok {
		respondDetail(c, http.StatusNotFound, "Submission not found")
		return
	}
	if u.Role == models.RoleStudent && rec.UserID != u.ID {
		b.log.WithField("user_id", u.ID).WithField("submission_id", id).Warn("non-owner attempted to read a submission")
		respondDetail(c, http.StatusForbidden, "Not authorized")
		return
	}

	c.JSON(http.StatusOK, b.submissionDetail(rec, true))
}

// UpdateSubmission replaces the text fields of a pending submission.
func (b *Backend) UpdateSubmission(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		respondDetail(c, http.StatusNotFound, "Submission not found.")
		return
	}

	var patch models.SubmissionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	patch.Title = utils.SanitizeInput(patch.Title)
	patch.Description = utils.SanitizeInput(patch.Description)
	if strings.TrimSpace(patch.CodeContent) == "" {
		patch.CodeContent = ""
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, status, detail := b.ownedPending(c, id, "update", "updated")
	if rec == nil {
		respondDetail(c, status, detail)
		return
	}
	if fe := utils.ValidateStruct(&patch); fe != nil {
		respondInvalid(c, fe.Field, fe.Message)
		return
	}

	rec.Title = patch.Title
	rec.Description = patch.Description
	rec.CodeContent = patch.CodeContent

	b.log.WithField("submission_id", rec.ID).Info("submission updated")
	c.JSON(http.StatusOK, b.submissionDetail(rec, false))
}

// DeleteSubmission removes a pending submission.
func (b *Backend) DeleteSubmission(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		respondDetail(c, http.StatusNotFound, "Submission not found.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, status, detail := b.ownedPending(c, id, "delete", "deleted")
	if rec == nil {
		respondDetail(c, status, detail)
		return
	}
	delete(b.submissions, rec.ID)

	b.log.WithField("submission_id", rec.ID).Info("submission deleted")
	c.Status(http.StatusNoContent)
}

// ownedPending resolves a submission the caller may mutate; callers must hold b.mu.
func (b *Backend) ownedPending(c *gin.Context, id int, verb, past string) (*submissionRecord, int, string) {
	u, ok := b.currentUser(c)
	if !ok {
		return nil, http.StatusUnauthorized, "Could not validate credentials"
	}
	rec, ok := b.submissions[id]
	if !ok {
		return nil, http.StatusNotFound, "Submission not found."
	}
	if rec.UserID != u.ID {
		return nil, http.StatusForbidden, "Not authorized to " + verb + " this submission."
	}
	if rec.Status != models.StatusPending {
		return nil, http.StatusBadRequest, "Only pending submissions can be " + past + "."
	}
	return rec, 0, ""
}

// submissionDetail renders a record; callers must hold b.mu.
func (b *Backend) submissionDetail(rec *submissionRecord, withReviews bool) models.Submission {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	out := models.Submission{
		ID:          rec.ID,
		UserID:      rec.UserID,
		User:        b.userSummary(rec.UserID),
		Title:       rec.Title,
		Description: rec.Description,
		CodeContent: rec.CodeContent,
		Language:    rec.Language,
		Tags:        tags,
		Status:      rec.Status,
		CreatedAt:   models.NewTimestamp(rec.CreatedAt),
	}
	if withReviews {
		out.Reviews = []models.Review{}
		for _, r := range b.reviewsFor(rec.ID) {
			out.Reviews = append(out.Reviews, b.reviewView(r))
		}
		out.ReviewCount = len(out.Reviews)
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
