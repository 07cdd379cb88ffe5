package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// UserResponse is the account shape returned to clients. The password hash
// never leaves the service layer.
type UserResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	AvatarURL  *string     `json:"avatar_url"`
	Role       domain.Role `json:"role"`
	IsPremium  bool        `json:"is_premium"`
	IsBlocked  bool        `json:"is_blocked"`
	IssueCount int         `json:"issue_count"`
	CreatedAt  time.Time   `json:"created_at"`
}

// CreateStaffRequest payload.
type CreateStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetBlockedRequest payload.
type SetBlockedRequest struct {
	Blocked bool `json:"blocked"`
}
