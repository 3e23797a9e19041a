package models

// Role is the platform role attached to an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleMentor, RoleAdmin:
		return true
	}
	return false
}

// Identity is the signed-in account as reported by the login endpoint.
type Identity struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// Session pairs the bearer credential with the identity it was issued for.
type Session struct {
	Credential string   `json:"credential"`
	Identity   Identity `json:"identity"`
}

// UserSummary is the compact user reference embedded in submissions and reviews.
type UserSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	User        *Identity `json:"user"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     Role   `json:"role" validate:"required,oneof=student mentor admin"`
}

type RegisterResponse struct {
	Message string   `json:"message"`
	User    Identity `json:"user"`
}
