// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"strings"

	"ledger/internal/domain/entity"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/repository"
	"ledger/internal/infra/persistence/model"
	"ledger/trust"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// identityRepository implements repository.IdentityRepository using GORM.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository is the constructor for identityRepository.
func NewIdentityRepository(db *gorm.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

// FindByID retrieves a single identity by id.
func (repo *identityRepository) FindByID(ctx context.Context, id int64) (*entity.Identity, error) {
	var m model.IdentityModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFoundOr(err, "failed to find identity by id")
	}

	return toIdentityDomain(&m), nil
}

// FindByEmail reads from the primary so a login right after registration
// never misses the row on a lagging replica.
func (repo *identityRepository) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	var m model.IdentityModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("email_key = ?", entity.NormalizeEmail(email)).
		First(&m).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to find identity by email")
	}

	return toIdentityDomain(&m), nil
}

// FindByExternalID retrieves the identity bound to a provider subject.
func (repo *identityRepository) FindByExternalID(ctx context.Context, source entity.AuthSource, providerID string) (*entity.Identity, error) {
	var m model.IdentityModel
	err := repo.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("auth_source = ? AND external_provider_id = ?", source.String(), providerID).
		First(&m).Error
	if err != nil {
		return nil, notFoundOr(err, "failed to find identity by external id")
	}

	return toIdentityDomain(&m), nil
}

// ListActive returns the active identities ordered by id.
func (repo *identityRepository) ListActive(ctx context.Context) ([]*entity.Identity, error) {
	var models []model.IdentityModel
	if err := repo.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list active identities")
	}

	identities := make([]*entity.Identity, 0, len(models))
	for i := range models {
		identities = append(identities, toIdentityDomain(&models[i]))
	}

	return identities, nil
}

// Create inserts the identity and copies the generated id back onto it.
func (repo *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	m := fromIdentityDomain(identity)
	if err := repo.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateWriteError(err, "failed to create identity")
	}

	identity.ID = m.ID
	identity.CreatedAt = m.CreatedAt
	identity.UpdatedAt = m.UpdatedAt

	return nil
}

// Update writes every mutable column of an existing identity.
func (repo *identityRepository) Update(ctx context.Context, identity *entity.Identity) error {
	m := fromIdentityDomain(identity)
	result := repo.db.WithContext(ctx).
		Model(m).
		Select("*").
		Omit("id", "created_at").
		Updates(m)
	if result.Error != nil {
		return translateWriteError(result.Error, "failed to update identity")
	}
	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	identity.UpdatedAt = m.UpdatedAt

	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrIdentityNotFound
	}

	return errors.Wrap(err, msg)
}

func translateWriteError(err error, msg string) error {
	switch {
	case isUniqueConstraintViolation(err):
		if strings.Contains(violatedConstraint(err), model.ConstraintIdentityExternal) {
			return errors.Wrap(domainerrors.ErrExternalIdentityConflict, msg)
		}

		return errors.Wrap(domainerrors.ErrDuplicateEmail, msg)
	case isNotNullConstraintViolation(err):
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	default:
		return domainerrors.NewDatabaseExecuteError(err, msg)
	}
}

func toIdentityDomain(m *model.IdentityModel) *entity.Identity {
	identity := &entity.Identity{
		ID:            m.ID,
		Email:         m.Email,
		DisplayName:   m.DisplayName,
		PictureURL:    m.PictureURL,
		AuthSource:    entity.AuthSource(m.AuthSource),
		Role:          trust.Role(m.Role),
		Active:        m.Active,
		EmailVerified: m.EmailVerified,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.PasswordHash != nil {
		identity.PasswordHash = *m.PasswordHash
	}
	if m.ExternalProviderID != nil {
		identity.ExternalProviderID = *m.ExternalProviderID
	}

	return identity
}

func fromIdentityDomain(identity *entity.Identity) *model.IdentityModel {
	return &model.IdentityModel{
		ID:                 identity.ID,
		Email:              identity.Email,
		EmailKey:           identity.EmailKey(),
		PasswordHash:       nullable(identity.PasswordHash),
		DisplayName:        identity.DisplayName,
		PictureURL:         identity.PictureURL,
		AuthSource:         identity.AuthSource.String(),
		ExternalProviderID: nullable(identity.ExternalProviderID),
		Role:               identity.Role.String(),
		Active:             identity.Active,
		EmailVerified:      identity.EmailVerified,
		CreatedAt:          identity.CreatedAt,
		UpdatedAt:          identity.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
