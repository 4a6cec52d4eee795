package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/users"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the access token and the signed-in user.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	User        *users.UserDTO `json:"user"`
}

// ProvisionRequest creates an account, optionally as the responsible of a club.
type ProvisionRequest struct {
	Email       string         `json:"email" validate:"required,email"`
	Password    string         `json:"password" validate:"required,min=8"`
	DisplayName string         `json:"display_name" validate:"required"`
	Role        enums.UserRole `json:"role" validate:"required"`
	Region      *string        `json:"region,omitempty"`
	AllRegions  bool           `json:"all_regions"`
	ClubID      *uuid.UUID     `json:"club_id,omitempty"`
}
