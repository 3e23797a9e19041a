// Package controllers holds the handlers of the development review backend.
// State lives in memory and is lost on restart.
package controllers

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"code-review-client/config"
	"code-review-client/middleware"
	"code-review-client/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	models.Identity
	PasswordHash []byte
	CreatedAt    time.Time
}

type submissionRecord struct {
	ID          int
	UserID      int
	Title       string
	Description string
	CodeContent string
	Language    string
	Tags        []string
	Status      models.SubmissionStatus
	CreatedAt   time.Time
}

type reviewRecord struct {
	ID             int
	SubmissionID   int
	ReviewerID     int
	OverallComment string
	Rating         int
	Annotations    []models.Annotation
	CreatedAt      time.Time
}

type notificationRecord struct {
	ID        int
	UserID    int
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

// Backend is the in-memory store behind every handler.
type Backend struct {
	mu            sync.RWMutex
	users         map[int]*account
	byEmail       map[string]int
	submissions   map[int]*submissionRecord
	reviews       []*reviewRecord
	notifications []*notificationRecord
	tags          []models.Tag

	lastUserID         int
	lastSubmissionID   int
	lastReviewID       int
	lastNotificationID int

	tokens     *middleware.TokenIssuer
	mailer     config.Mailer
	bcryptCost int
	log        *logrus.Entry
	now        func() time.Time
	mail       sync.WaitGroup
}

type Option func(*Backend)

// WithMailer emails submission owners when a review is posted.
func WithMailer(m config.Mailer) Option {
	return func(b *Backend) { b.mailer = m }
}

func WithBcryptCost(cost int) Option {
	return func(b *Backend) { b.bcryptCost = cost }
}

func WithLogger(logger *logrus.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.log = logger.WithField("component", "devserver")
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

func NewBackend(tokens *middleware.TokenIssuer, opts ...Option) *Backend {
	b := &Backend{
		users:       make(map[int]*account),
		byEmail:     make(map[string]int),
		submissions: make(map[int]*submissionRecord),
		tokens:      tokens,
		bcryptCost:  bcrypt.DefaultCost,
		log:         config.DiscardLogger().WithField("component", "devserver"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Tokens returns the issuer used to sign bearer tokens.
func (b *Backend) Tokens() *middleware.TokenIssuer { return b.tokens }

// UserExists reports whether the account still exists.
func (b *Backend) UserExists(userID int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.users[userID]
	return ok
}

// Wait blocks until queued review emails have been handed to the mailer.
func (b *Backend) Wait() { b.mail.Wait() }

func (b *Backend) timestamp() time.Time { return b.now().UTC() }

func getCurrentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok && id > 0
}

// currentUser loads the caller's account; callers must hold b.mu.
func (b *Backend) currentUser(c *gin.Context) (*account, bool) {
	id, ok := getCurrentUserID(c)
	if !ok {
		return nil, false
	}
	u, ok := b.users[id]
	return u, ok
}

func (b *Backend) userSummary(id int) *models.UserSummary {
	u, ok := b.users[id]
	if !ok {
		return &models.UserSummary{ID: id, Name: "Unknown"}
	}
	return &models.UserSummary{ID: u.ID, Name: u.Name}
}

func respondDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

type fieldDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func respondInvalid(c *gin.Context, field, msg string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldDetail{{
		Loc:  []string{"body", field},
		Msg:  msg,
		Type: "value_error",
	}}})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ensureTags registers unknown tag names; callers must hold b.mu.
func (b *Backend) ensureTags(names []string) {
	for _, name := range names {
		found := false
		for _, t := range b.tags {
			if t.Name == name {
				found = true
				break
			}
		}
		if !found {
			b.tags = append(b.tags, models.Tag{ID: len(b.tags) + 1, Name: name})
		}
	}
}
