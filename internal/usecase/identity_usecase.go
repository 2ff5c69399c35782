// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"ledger/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a local identity.
type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

// LoginInput defines the data required for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// ProvisionExternalInput carries the claims of a principal verified by an external provider.
type ProvisionExternalInput struct {
	Provider    string
	ProviderID  string
	Email       string
	DisplayName string
	PictureURL  string
}

// --- Output DTOs ---

// AuthOutput is returned by every operation that authenticates an identity.
type AuthOutput struct {
	Identity *entity.Identity
	Token    string
}

// IdentityUsecase resolves register, login and external sign-in events into a
// canonical identity and a freshly issued token.
type IdentityUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)
	ProvisionExternal(ctx context.Context, input *ProvisionExternalInput) (*AuthOutput, error)
}
