package handler

import (
	"time"

	"ledger/internal/domain/entity"
)

const tokenTypeBearer = "Bearer"

// IdentityResponse is the public view of an identity. It never carries the password hash.
type IdentityResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	PictureURL    string    `json:"pictureUrl,omitempty"`
	AuthSource    string    `json:"authSource"`
	Role          string    `json:"role"`
	Active        bool      `json:"active"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AuthResponse is returned by register, login and the OAuth2 success endpoint.
type AuthResponse struct {
	Token     string           `json:"token"`
	TokenType string           `json:"tokenType"`
	Identity  IdentityResponse `json:"identity"`
}

// ValidateResponse reports whether a bearer token is currently valid.
type ValidateResponse struct {
	Valid  bool   `json:"valid"`
	Email  string `json:"email,omitempty"`
	UserID int64  `json:"userId,omitempty"`
}

func toIdentityResponse(identity *entity.Identity) IdentityResponse {
	return IdentityResponse{
		ID:            identity.ID,
		Email:         identity.Email,
		DisplayName:   identity.DisplayName,
		PictureURL:    identity.PictureURL,
		AuthSource:    identity.AuthSource.String(),
		Role:          identity.Role.String(),
		Active:        identity.Active,
		EmailVerified: identity.EmailVerified,
		CreatedAt:     identity.CreatedAt,
		UpdatedAt:     identity.UpdatedAt,
	}
}

func toIdentityResponses(identities []*entity.Identity) []IdentityResponse {
	out := make([]IdentityResponse, 0, len(identities))
	for _, identity := range identities {
		out = append(out, toIdentityResponse(identity))
	}

	return out
}
