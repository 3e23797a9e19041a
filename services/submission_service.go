package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"code-review-client/models"
	"code-review-client/utils"

	"github.com/sirupsen/logrus"
)

// SubmissionService owns the submission lifecycle: pending until the first
// review lands, reviewed (and locked) afterwards. The status is never set
// from here; it is observed by fetching.
type SubmissionService struct {
	api      API
	identity IdentitySource
	log      *logrus.Entry
}

func NewSubmissionService(api API, identity IdentitySource, logger *logrus.Logger) *SubmissionService {
	return &SubmissionService{api: api, identity: identity, log: componentLog(logger, "submissions")}
}

// ValidateDraft trims and checks a draft and returns the values that will be sent.
func ValidateDraft(draft models.SubmissionDraft) (models.SubmissionDraft, error) {
	draft.Title = utils.SanitizeInput(draft.Title)
	draft.Description = utils.SanitizeInput(draft.Description)
	draft.Language = strings.TrimSpace(draft.Language)
	draft.Tags = utils.NormalizeTags(draft.Tags)
	if strings.TrimSpace(draft.CodeContent) == "" {
		draft.CodeContent = ""
	}
	if fe := utils.ValidateStruct(draft); fe != nil {
		return draft, invalid(fe.Field, fe.Message)
	}
	return draft, nil
}

// ValidatePatch applies the create rules to a full-replace edit.
func ValidatePatch(patch models.SubmissionPatch) (models.SubmissionPatch, error) {
	patch.Title = utils.SanitizeInput(patch.Title)
	patch.Description = utils.SanitizeInput(patch.Description)
	if strings.TrimSpace(patch.CodeContent) == "" {
		patch.CodeContent = ""
	}
	if fe := utils.ValidateStruct(patch); fe != nil {
		return patch, invalid(fe.Field, fe.Message)
	}
	return patch, nil
}

// Create validates the draft locally and posts it.
func (s *SubmissionService) Create(ctx context.Context, draft models.SubmissionDraft) (*models.Submission, error) {
	draft, err := ValidateDraft(draft)
	if err != nil {
		return nil, err
	}
	if identity, ok := s.signedIn(); ok {
		if err := CanCreate(identity); err != nil {
			return nil, err
		}
	}

	var created models.Submission
	if err := s.api.CallJSON(ctx, http.MethodPost, "/api/submissions", draft, &created); err != nil {
		return nil, err
	}
	s.log.WithField("submission_id", created.ID).Info("submission created")
	return &created, nil
}

// Edit replaces title, description and code of a pending submission owned by
// the caller.
func (s *SubmissionService) Edit(ctx context.Context, id int, patch models.SubmissionPatch) (*models.Submission, error) {
	patch, err := ValidatePatch(patch)
	if err != nil {
		return nil, err
	}
	if _, err := s.guard(ctx, id, CanEdit); err != nil {
		return nil, err
	}

	var updated models.Submission
	if err := s.api.CallJSON(ctx, http.MethodPut, submissionPath(id), patch, &updated); err != nil {
		return nil, err
	}
	s.log.WithField("submission_id", id).Info("submission updated")
	return &updated, nil
}

// Delete removes a pending submission owned by the caller. It is permanent;
// the caller is expected to have confirmed with the user.
func (s *SubmissionService) Delete(ctx context.Context, id int) error {
	if _, err := s.guard(ctx, id, CanDelete); err != nil {
		return err
	}
	if err := s.api.CallJSON(ctx, http.MethodDelete, submissionPath(id), nil, nil); err != nil {
		return err
	}
	s.log.WithField("submission_id", id).Info("submission deleted")
	return nil
}

// List returns one page of submissions visible to the caller.
func (s *SubmissionService) List(ctx context.Context, filter models.SubmissionFilter) (*models.SubmissionPage, error) {
	endpoint := "/api/submissions"
	if q := filterQuery(filter); q != "" {
		endpoint += "?" + q
	}
	var page models.SubmissionPage
	if err := s.api.CallJSON(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
		return nil, err
	}
	if page.Submissions == nil {
		page.Submissions = []models.Submission{}
	}
	return &page, nil
}

// Get returns a submission with its reviews and annotations.
func (s *SubmissionService) Get(ctx context.Context, id int) (*models.Submission, error) {
	var sub models.Submission
	if err := s.api.CallJSON(ctx, http.MethodGet, submissionPath(id), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubmissionService) guard(ctx context.Context, id int, check func(*models.Submission, models.Identity) error) (*models.Submission, error) {
	identity, err := currentIdentity(s.identity)
	if err != nil {
		return nil, err
	}
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := check(sub, identity); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) signedIn() (models.Identity, bool) {
	if s.identity == nil {
		return models.Identity{}, false
	}
	return s.identity.Identity()
}

func submissionPath(id int) string {
	return fmt.Sprintf("/api/submissions/%d", id)
}

func filterQuery(f models.SubmissionFilter) string {
	q := url.Values{}
	if f.Skip > 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Status != "" {
		q.Set("status_filter", string(f.Status))
	}
	if f.Language != "" {
		q.Set("language", f.Language)
	}
	return q.Encode()
}
