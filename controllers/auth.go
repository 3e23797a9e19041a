package controllers

import (
	"net/http"

	"code-review-client/models"
	"code-review-client/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Register creates an account.
func (b *Backend) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Name = utils.SanitizeInput(req.Name)
	req.Email = normalizeEmail(req.Email)
	if fe := utils.ValidateStruct(&req); fe != nil {
		respondInvalid(c, fe.Field, fe.Message)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), b.bcryptCost)
	if err != nil {
		b.log.WithError(err).Error("hash password")
		respondDetail(c, http.StatusInternalServerError, "Failed to register user")
		return
	}

	b.mu.Lock()
	if _, taken := b.byEmail[req.Email]; taken {
		b.mu.Unlock()
		respondDetail(c, http.StatusBadRequest, "Email already registered.")
		return
	}
	b.lastUserID++
	u := &account{
		Identity: models.Identity{
			ID:    b.lastUserID,
			Name:  req.Name,
			Email: req.Email,
			Role:  req.Role,
		},
		PasswordHash: hash,
		CreatedAt:    b.timestamp(),
	}
	b.users[u.ID] = u
	b.byEmail[u.Email] = u.ID
	b.mu.Unlock()

	b.log.WithField("user_id", u.ID).WithField("role", u.Role).Info("user registered")
	c.JSON(http.StatusOK, models.RegisterResponse{
		Message: "User registered successfully.",
		User:    u.Identity,
	})
}

// Login exchanges credentials for a bearer token.
func (b *Backend) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.RLock()
	var u *account
	if id, ok := b.byEmail[normalizeEmail(req.Email)]; ok {
		u = b.users[id]
	}
	b.mu.RUnlock()

	if u == nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		b.log.WithField("email", normalizeEmail(req.Email)).Warn("failed login")
		respondDetail(c, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token, err := b.tokens.Issue(u.ID, u.Role)
	if err != nil {
		b.log.WithError(err).Error("sign token")
		respondDetail(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	identity := u.Identity
	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        &identity,
	})
}

// Me returns the caller's account.
func (b *Backend) Me(c *gin.Context) {
	b.mu.RLock()
	u, ok := b.currentUser(c)
	var identity models.Identity
	if ok {
		identity = u.Identity
	}
	b.mu.RUnlock()

	if !ok {
		respondDetail(c, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	c.JSON(http.StatusOK, identity)
}
