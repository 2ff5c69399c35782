// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "ledger/internal/delivery/context"
	"ledger/internal/domain/entity"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/repository"
	"ledger/internal/domain/service"
	"ledger/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// identityService implements the IdentityUsecase interface.
type identityService struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	hasher       service.PasswordHasher
	tokenIssuer  service.TokenIssuer
	events       eventEmitter
	logger       *slog.Logger
	now          func() time.Time
}

// IdentityServiceParams holds dependencies for IdentityService, injected by Fx.
type IdentityServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	Hasher       service.PasswordHasher
	TokenIssuer  service.TokenIssuer
	Publisher    service.EventPublisher
	Logger       *slog.Logger
}

// NewIdentityService is the constructor for identityService.
func NewIdentityService(params IdentityServiceParams) usecase.IdentityUsecase {
	return &identityService{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		hasher:       params.Hasher,
		tokenIssuer:  params.TokenIssuer,
		events:       eventEmitter{publisher: params.Publisher, logger: params.Logger},
		logger:       params.Logger,
		now:          time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *identityService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a LOCAL identity and issues its first token.
func (srv *identityService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.AuthOutput, error) {
	email := strings.TrimSpace(input.Email)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	// Fail fast before paying for the hash. The transaction re-checks.
	if err := srv.ensureEmailAvailable(ctx, srv.identityRepo, email); err != nil {
		return nil, err
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	now := srv.now()
	identity, err := entity.NewLocalIdentity(email, input.DisplayName, hash, now)
	if err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		repo := repoFactory.IdentityRepo()
		if err := srv.ensureEmailAvailable(ctx, repo, email); err != nil {
			return err
		}

		return repo.Create(ctx, identity)
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute registration transaction")
	}

	srv.events.emit(ctx, service.EventIdentityRegistered, identity, now)

	return srv.authenticated(ctx, identity, now)
}

// Login verifies the password and issues a fresh token. Unknown emails and
// wrong passwords produce the same error.
func (srv *identityService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.AuthOutput, error) {
	identity, err := srv.identityRepo.FindByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		srv.log(ctx).Info("Login rejected", slog.String("reason", "unknown email"))

		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find identity by email")
	}

	if !identity.HasPassword() || !srv.hasher.Check(input.Password, identity.PasswordHash) {
		srv.log(ctx).Info("Login rejected", slog.String("reason", "bad password"), slog.Int64("userID", identity.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}

	if !identity.Active {
		srv.log(ctx).Info("Login rejected", slog.String("reason", "inactive"), slog.Int64("userID", identity.ID))

		return nil, domainerrors.ErrAccountInactive
	}

	return srv.authenticated(ctx, identity, srv.now())
}

// ProvisionExternal finds or creates the identity owning the provider's email.
// An existing password hash and role are never touched.
func (srv *identityService) ProvisionExternal(ctx context.Context, input *usecase.ProvisionExternalInput) (*usecase.AuthOutput, error) {
	if strings.TrimSpace(input.Provider) == "" || strings.TrimSpace(input.ProviderID) == "" || strings.TrimSpace(input.Email) == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("provider, provider id and email are required")
	}

	source := entity.ExternalAuthSource(input.Provider)
	now := srv.now()

	identity, eventType, err := srv.provisionExternalOnce(ctx, input, source, now)
	if errors.Is(err, domainerrors.ErrDuplicateEmail) {
		// A concurrent first sign-in created the identity; the retry finds it.
		identity, eventType, err = srv.provisionExternalOnce(ctx, input, source, now)
		if errors.Is(err, domainerrors.ErrDuplicateEmail) {
			err = domainerrors.ErrOAuthProcessing.WrapMessage(err.Error())
		}
	}
	if err != nil {
		srv.log(ctx).Warn("External provisioning failed",
			slog.String("provider", input.Provider),
			slog.Any("error", err),
		)

		return nil, errors.Wrap(err, "failed to execute external provisioning transaction")
	}

	if eventType != "" {
		srv.events.emit(ctx, eventType, identity, now)
	}

	return srv.authenticated(ctx, identity, now)
}

// provisionExternalOnce runs one find-or-create transaction.
func (srv *identityService) provisionExternalOnce(
	ctx context.Context,
	input *usecase.ProvisionExternalInput,
	source entity.AuthSource,
	now time.Time,
) (identity *entity.Identity, eventType service.IdentityEventType, err error) {
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		repo := repoFactory.IdentityRepo()

		bound, err := findOptional(repo.FindByExternalID(ctx, source, input.ProviderID))
		if err != nil {
			return errors.Wrap(err, "failed to find identity by external id")
		}
		existing, err := findOptional(repo.FindByEmail(ctx, input.Email))
		if err != nil {
			return errors.Wrap(err, "failed to find identity by email")
		}

		if bound != nil && (existing == nil || existing.ID != bound.ID) {
			return domainerrors.ErrExternalIdentityConflict.WithDetails("provider account is linked to another identity")
		}

		if existing == nil {
			created, err := entity.NewExternalIdentity(input.Provider, input.ProviderID, input.Email, input.DisplayName, input.PictureURL, now)
			if err != nil {
				return domainerrors.ErrValidationFailed.WithDetails(err.Error())
			}
			if err := repo.Create(ctx, created); err != nil {
				return err
			}
			identity, eventType = created, service.EventIdentityExternalProvisioned

			return nil
		}

		if !existing.Active {
			return domainerrors.ErrAccountInactive
		}

		if existing.VerifyEmail(now) {
			if err := repo.Update(ctx, existing); err != nil {
				return errors.Wrap(err, "failed to mark email verified")
			}
			eventType = service.EventIdentityEmailVerified
		}
		identity = existing

		return nil
	})

	return identity, eventType, err
}

func (srv *identityService) ensureEmailAvailable(ctx context.Context, repo repository.IdentityRepository, email string) error {
	_, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return domainerrors.ErrDuplicateEmail
	case errors.Is(err, repository.ErrIdentityNotFound):
		return nil
	default:
		return errors.Wrap(err, "failed to check email availability")
	}
}

func (srv *identityService) authenticated(ctx context.Context, identity *entity.Identity, now time.Time) (*usecase.AuthOutput, error) {
	token, err := srv.tokenIssuer.Issue(identity.ID, identity.Email, identity.Role, now)
	if err != nil {
		srv.log(ctx).Error("Failed to issue token", slog.Int64("userID", identity.ID), slog.Any("error", err))

		return nil, domainerrors.ErrTokenIssueFailed.WrapMessage(err.Error())
	}

	srv.log(ctx).Debug("Identity authenticated", slog.Int64("userID", identity.ID))

	return &usecase.AuthOutput{Identity: identity, Token: token}, nil
}

// findOptional turns a not-found lookup into a nil identity.
func findOptional(identity *entity.Identity, err error) (*entity.Identity, error) {
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, nil
	}

	return identity, err
}
