package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/db/models"
	"github.com/souqly/souqly-backend/pkg/enums"
)

// RegisterInput carries a signup request.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     enums.UserRole
	Region   *string
	Phone    *string
}

// LoginInput carries a credential pair.
type LoginInput struct {
	Email    string
	Password string
}

// UserView is the API projection of a user row.
type UserView struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	FullName  string         `json:"full_name"`
	Role      enums.UserRole `json:"role"`
	Region    *string        `json:"region,omitempty"`
	Phone     *string        `json:"phone,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuthResult bundles the minted token with the authenticated user.
type AuthResult struct {
	AccessToken string   `json:"access_token"`
	User        UserView `json:"user"`
}

// FromModel converts a user row into its API projection.
func FromModel(user *models.User) UserView {
	if user == nil {
		return UserView{}
	}
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		Region:    user.Region,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	}
}
