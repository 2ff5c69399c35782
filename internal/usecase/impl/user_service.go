package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "ledger/internal/delivery/context"
	"ledger/internal/domain/entity"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/repository"
	"ledger/internal/domain/service"
	"ledger/internal/usecase"
	"ledger/trust"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	events       eventEmitter
	logger       *slog.Logger
	now          func() time.Time
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	Publisher    service.EventPublisher
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		events:       eventEmitter{publisher: params.Publisher, logger: params.Logger},
		logger:       params.Logger,
		now:          time.Now,
	}
}

func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *userService) GetByID(ctx context.Context, id int64) (*entity.Identity, error) {
	identity, err := srv.identityRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookupError(err, "failed to find identity by id")
	}
	if !identity.Active {
		return nil, domainerrors.ErrIdentityNotFound
	}

	return identity, nil
}

func (srv *userService) GetByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	identity, err := srv.identityRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, translateLookupError(err, "failed to find identity by email")
	}

	return identity, nil
}

func (srv *userService) ListActive(ctx context.Context) ([]*entity.Identity, error) {
	identities, err := srv.identityRepo.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active identities")
	}

	return identities, nil
}

// UpdateProfile changes display name and picture only. Inactive identities cannot be edited.
func (srv *userService) UpdateProfile(ctx context.Context, id int64, input *usecase.UpdateProfileInput) (*entity.Identity, error) {
	return srv.mutate(ctx, id, service.EventIdentityUpdated, func(identity *entity.Identity, now time.Time) (bool, error) {
		if !identity.Active {
			return false, domainerrors.ErrIdentityNotFound
		}

		return identity.UpdateProfile(entity.ProfileChange{
			DisplayName: input.DisplayName,
			PictureURL:  input.PictureURL,
		}, now), nil
	})
}

func (srv *userService) Activate(ctx context.Context, id int64) (*entity.Identity, error) {
	return srv.mutate(ctx, id, service.EventIdentityActivated, func(identity *entity.Identity, now time.Time) (bool, error) {
		return identity.Activate(now), nil
	})
}

// Deactivate is the soft delete. Tokens already issued stay valid until they expire.
func (srv *userService) Deactivate(ctx context.Context, id int64) (*entity.Identity, error) {
	return srv.mutate(ctx, id, service.EventIdentityDeactivated, func(identity *entity.Identity, now time.Time) (bool, error) {
		return identity.Deactivate(now), nil
	})
}

func (srv *userService) ChangeRole(ctx context.Context, id int64, role trust.Role) (*entity.Identity, error) {
	return srv.mutate(ctx, id, service.EventIdentityRoleChanged, func(identity *entity.Identity, now time.Time) (bool, error) {
		changed, err := identity.ChangeRole(role, now)
		if err != nil {
			return false, domainerrors.ErrValidationFailed.WithDetails(err.Error())
		}

		return changed, nil
	})
}

// mutate loads, changes and saves one identity in a transaction. The event is
// emitted only when change reports a modification.
func (srv *userService) mutate(
	ctx context.Context,
	id int64,
	eventType service.IdentityEventType,
	change func(identity *entity.Identity, now time.Time) (bool, error),
) (*entity.Identity, error) {
	now := srv.now()

	var (
		identity *entity.Identity
		changed  bool
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		repo := repoFactory.IdentityRepo()

		found, err := repo.FindByID(ctx, id)
		if err != nil {
			return translateLookupError(err, "failed to find identity by id")
		}

		changed, err = change(found, now)
		if err != nil {
			return err
		}
		if changed {
			if err := repo.Update(ctx, found); err != nil {
				return translateLookupError(err, "failed to update identity")
			}
		}
		identity = found

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Identity change failed",
			slog.String("change", string(eventType)),
			slog.Int64("userID", id),
			slog.Any("error", err),
		)

		return nil, err
	}

	if changed {
		srv.log(ctx).Info("Identity changed", slog.String("change", string(eventType)), slog.Int64("userID", id))
		srv.events.emit(ctx, eventType, identity, now)
	}

	return identity, nil
}

// translateLookupError maps the repository's not-found sentinel to the domain error.
func translateLookupError(err error, msg string) error {
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return domainerrors.ErrIdentityNotFound
	}

	return errors.Wrap(err, msg)
}
