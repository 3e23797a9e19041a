package services

import (
	"context"
	"net/http"
	"strings"

	"code-review-client/models"
	"code-review-client/utils"

	"github.com/sirupsen/logrus"
)

// SessionWriter is the mutating side of the session store.
type SessionWriter interface {
	Save(credential string, identity models.Identity) error
	Clear() error
}

// AuthService signs users in and out.
type AuthService struct {
	api      API
	sessions SessionWriter
	log      *logrus.Entry
}

func NewAuthService(api API, sessions SessionWriter, logger *logrus.Logger) *AuthService {
	return &AuthService{api: api, sessions: sessions, log: componentLog(logger, "auth")}
}

// Login authenticates and stores the session. A reply without an access token
// or user leaves the stored session unchanged.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.Session{}, invalid("email", "must not be empty")
	}
	if password == "" {
		return models.Session{}, invalid("password", "must not be empty")
	}

	var resp models.LoginResponse
	err := s.api.CallJSON(ctx, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return models.Session{}, err
	}
	if resp.AccessToken == "" || resp.User == nil {
		s.log.WithField("email", email).Warn("login reply missing token or user")
		return models.Session{}, ErrIncompleteLogin
	}

	if err := s.sessions.Save(resp.AccessToken, *resp.User); err != nil {
		return models.Session{}, err
	}
	s.log.WithField("user_id", resp.User.ID).Info("signed in")
	return models.Session{Credential: resp.AccessToken, Identity: *resp.User}, nil
}

// Register creates an account. It does not sign the user in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (models.Identity, error) {
	req.Name = utils.SanitizeInput(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if fe := utils.ValidateStruct(req); fe != nil {
		return models.Identity{}, invalid(fe.Field, fe.Message)
	}
	if !utils.ValidateEmail(req.Email) {
		return models.Identity{}, invalid("email", "must be a valid email address")
	}
	if ok, msg := utils.ValidatePassword(req.Password); !ok {
		return models.Identity{}, invalid("password", msg)
	}

	var resp models.RegisterResponse
	if err := s.api.CallJSON(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return models.Identity{}, err
	}
	return resp.User, nil
}

// Logout clears the stored session.
func (s *AuthService) Logout() error {
	return s.sessions.Clear()
}

// Me asks the server who the stored credential belongs to.
func (s *AuthService) Me(ctx context.Context) (models.Identity, error) {
	var identity models.Identity
	if err := s.api.CallJSON(ctx, http.MethodGet, "/api/auth/me", nil, &identity); err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}
