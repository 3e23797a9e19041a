package services

import "code-review-client/models"

// The checks below are the single place each action's client-side rule lives.
// They are advisory: the server makes the final decision.

// CanCreate reports whether identity may create submissions (students only).
func CanCreate(identity models.Identity) error {
	if identity.Role != models.RoleStudent {
		return &PermissionError{Action: "create submission", Reason: "only students can create submissions"}
	}
	return nil
}

// CanEdit reports whether identity may edit sub: owner only, pending only.
func CanEdit(sub *models.Submission, identity models.Identity) error {
	return ownerWhilePending("edit submission", sub, identity)
}

// CanDelete reports whether identity may delete sub: owner only, pending only.
func CanDelete(sub *models.Submission, identity models.Identity) error {
	return ownerWhilePending("delete submission", sub, identity)
}

// CanReview reports whether identity may compose reviews (mentors only).
func CanReview(identity models.Identity) error {
	if identity.Role != models.RoleMentor {
		return &PermissionError{Action: "review submission", Reason: "only mentors can review submissions"}
	}
	return nil
}

func ownerWhilePending(action string, sub *models.Submission, identity models.Identity) error {
	if sub == nil {
		return &PermissionError{Action: action, Reason: "submission not loaded"}
	}
	if sub.OwnerID() == 0 || sub.OwnerID() != identity.ID {
		return &PermissionError{Action: action, Reason: "only the owner can change a submission"}
	}
	if sub.Status != models.StatusPending {
		return &PermissionError{Action: action, Reason: "submission has been reviewed and is locked"}
	}
	return nil
}
