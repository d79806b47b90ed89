package dto

import (
	"time"

	"github.com/soportek/helpdesk/internal/domain"
)

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	Department *string `json:"department,omitempty"`
}

// LoginRequest authenticates by email or first name.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID           string             `json:"id"`
	FirstName    string             `json:"first_name"`
	LastName     string             `json:"last_name"`
	Email        string             `json:"email"`
	Role         domain.Role        `json:"role"`
	Department   *domain.Department `json:"department,omitempty"`
	Admitted     bool               `json:"admitted"`
	ProfilePhoto *string            `json:"profile_photo,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		Role:         user.Role,
		Department:   user.Department,
		Admitted:     user.Admitted,
		ProfilePhoto: user.ProfilePhoto,
		CreatedAt:    user.CreatedAt,
	}
}
