// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"ledger/internal/domain/entity"
)

// ErrIdentityNotFound is returned when no identity matches a lookup.
var ErrIdentityNotFound = errors.New("identity not found")

// IdentityRepository is the credential store seen by the use cases.
type IdentityRepository interface {
	// FindByID retrieves a single identity by its id.
	FindByID(ctx context.Context, id int64) (*entity.Identity, error)

	// FindByEmail retrieves an identity by email, ignoring case and surrounding whitespace.
	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// FindByExternalID retrieves the identity bound to providerID under source.
	FindByExternalID(ctx context.Context, source entity.AuthSource, providerID string) (*entity.Identity, error)

	// ListActive returns every active identity ordered by id.
	ListActive(ctx context.Context) ([]*entity.Identity, error)

	// Create persists a new identity and assigns its id and timestamps.
	// It fails with domainerrors.ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, identity *entity.Identity) error

	// Update saves every field of an existing identity.
	Update(ctx context.Context, identity *entity.Identity) error
}
