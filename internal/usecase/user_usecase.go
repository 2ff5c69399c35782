package usecase

import (
	"context"

	"ledger/internal/domain/entity"
	"ledger/trust"
)

// UpdateProfileInput lists the editable profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	DisplayName *string
	PictureURL  *string
}

// UserUsecase administers existing identities. Callers authorize before calling.
type UserUsecase interface {
	// GetByID returns an active identity. Inactive identities are reported as not found.
	GetByID(ctx context.Context, id int64) (*entity.Identity, error)

	// GetByEmail returns the identity with email, active or not.
	GetByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// ListActive returns every active identity ordered by id.
	ListActive(ctx context.Context) ([]*entity.Identity, error)

	UpdateProfile(ctx context.Context, id int64, input *UpdateProfileInput) (*entity.Identity, error)
	Activate(ctx context.Context, id int64) (*entity.Identity, error)
	Deactivate(ctx context.Context, id int64) (*entity.Identity, error)
	ChangeRole(ctx context.Context, id int64, role trust.Role) (*entity.Identity, error)
}
