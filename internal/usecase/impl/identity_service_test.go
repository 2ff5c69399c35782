package impl

import (
	"context"
	"testing"

	"ledger/internal/domain/entity"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/repository"
	"ledger/internal/domain/service"
	mockRepo "ledger/internal/mocks/repository"
	mockSvc "ledger/internal/mocks/service"
	"ledger/internal/usecase"
	"ledger/trust"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// identityServiceFixtures holds all test dependencies for identity service tests.
type identityServiceFixtures struct {
	service      usecase.IdentityUsecase
	txManager    *mockRepo.MockTransactionManager
	identityRepo *mockRepo.MockIdentityRepository
	hasher       *mockSvc.MockPasswordHasher
	tokenIssuer  *mockSvc.MockTokenIssuer
	publisher    *mockSvc.MockEventPublisher
}

func createTestIdentityService(t *testing.T) identityServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	identityRepo := mockRepo.NewMockIdentityRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	tokenIssuer := mockSvc.NewMockTokenIssuer(t)
	publisher := mockSvc.NewMockEventPublisher(t)

	srv := NewIdentityService(IdentityServiceParams{
		TxManager:    txManager,
		IdentityRepo: identityRepo,
		Hasher:       hasher,
		TokenIssuer:  tokenIssuer,
		Publisher:    publisher,
		Logger:       newDiscardLogger(),
	})
	srv.(*identityService).now = fixedClock

	return identityServiceFixtures{
		service:      srv,
		txManager:    txManager,
		identityRepo: identityRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		publisher:    publisher,
	}
}

func expectEvent(publisher *mockSvc.MockEventPublisher, eventType service.IdentityEventType) {
	publisher.EXPECT().
		PublishIdentityEvent(mock.Anything, mock.MatchedBy(func(e *service.IdentityEvent) bool {
			return e.Type == eventType && e.EventID != "" && e.OccurredAt.Equal(fixedNow)
		})).
		Return(nil).
		Once()
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	input := &usecase.RegisterInput{Email: " a@x.com ", Password: "Secret1!", DisplayName: "Ana"}

	t.Run("creates a local user identity", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.hasher.EXPECT().ValidatePasswordStrength("Secret1!").Return(nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Twice()
		f.hasher.EXPECT().Hash("Secret1!").Return("digest", nil).Once()
		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Identity")).
			RunAndReturn(func(_ context.Context, identity *entity.Identity) error {
				identity.ID = 7

				return nil
			}).Once()
		expectEvent(f.publisher, service.EventIdentityRegistered)
		f.tokenIssuer.EXPECT().Issue(int64(7), "a@x.com", trust.RoleUser, fixedNow).Return("T1", nil).Once()

		out, err := f.service.Register(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "T1", out.Token)
		assert.Equal(t, int64(7), out.Identity.ID)
		assert.Equal(t, entity.AuthSourceLocal, out.Identity.AuthSource)
		assert.Equal(t, trust.RoleUser, out.Identity.Role)
		assert.Equal(t, "digest", out.Identity.PasswordHash)
		assert.True(t, out.Identity.Active)
		assert.False(t, out.Identity.EmailVerified)
	})

	t.Run("rejects a taken email before hashing", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.hasher.EXPECT().ValidatePasswordStrength("Secret1!").Return(nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(localIdentity(t, 1, "A@X.com"), nil).Once()

		out, err := f.service.Register(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)
		assert.Nil(t, out)
	})

	t.Run("rejects an email taken inside the transaction", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.hasher.EXPECT().ValidatePasswordStrength("Secret1!").Return(nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Once()
		f.hasher.EXPECT().Hash("Secret1!").Return("digest", nil).Once()
		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(localIdentity(t, 1, "a@x.com"), nil).Once()

		out, err := f.service.Register(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)
		assert.Nil(t, out)
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.hasher.EXPECT().ValidatePasswordStrength("weak").Return(domainerrors.ErrPasswordStrength).Once()

		_, err := f.service.Register(ctx, &usecase.RegisterInput{Email: "a@x.com", Password: "weak"})
		assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.hasher.EXPECT().ValidatePasswordStrength("Secret1!").Return(nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "not-an-email").Return(nil, repository.ErrIdentityNotFound).Once()
		f.hasher.EXPECT().Hash("Secret1!").Return("digest", nil).Once()

		_, err := f.service.Register(ctx, &usecase.RegisterInput{Email: "not-an-email", Password: "Secret1!"})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})

	t.Run("surfaces token failures", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.hasher.EXPECT().ValidatePasswordStrength("Secret1!").Return(nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Twice()
		f.hasher.EXPECT().Hash("Secret1!").Return("digest", nil).Once()
		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().Create(ctx, mock.Anything).Return(nil).Once()
		expectEvent(f.publisher, service.EventIdentityRegistered)
		f.tokenIssuer.EXPECT().Issue(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("signing failed")).Once()

		_, err := f.service.Register(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrTokenIssueFailed)
	})

	t.Run("publish failures do not fail the request", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.hasher.EXPECT().ValidatePasswordStrength("Secret1!").Return(nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Twice()
		f.hasher.EXPECT().Hash("Secret1!").Return("digest", nil).Once()
		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().Create(ctx, mock.Anything).Return(nil).Once()
		f.publisher.EXPECT().PublishIdentityEvent(mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
		f.tokenIssuer.EXPECT().Issue(mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("T1", nil).Once()

		out, err := f.service.Register(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "T1", out.Token)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	input := &usecase.LoginInput{Email: "a@x.com", Password: "Secret1!"}

	t.Run("issues a token for the right password", func(t *testing.T) {
		f := createTestIdentityService(t)
		identity := localIdentity(t, 7, "a@x.com")

		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(identity, nil).Once()
		f.hasher.EXPECT().Check("Secret1!", "stored-hash").Return(true).Once()
		f.tokenIssuer.EXPECT().Issue(int64(7), "a@x.com", trust.RoleUser, fixedNow).Return("T2", nil).Once()

		out, err := f.service.Login(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "T2", out.Token)
		assert.Same(t, identity, out.Identity)
	})

	t.Run("unknown email and wrong password look the same", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.identityRepo.EXPECT().FindByEmail(ctx, "nobody@x.com").Return(nil, repository.ErrIdentityNotFound).Once()
		_, unknownErr := f.service.Login(ctx, &usecase.LoginInput{Email: "nobody@x.com", Password: "Secret1!"})

		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(localIdentity(t, 7, "a@x.com"), nil).Once()
		f.hasher.EXPECT().Check("Secret1!", "stored-hash").Return(false).Once()
		_, wrongErr := f.service.Login(ctx, input)

		assert.ErrorIs(t, unknownErr, domainerrors.ErrInvalidCredentials)
		assert.ErrorIs(t, wrongErr, domainerrors.ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	})

	t.Run("identity without password cannot log in", func(t *testing.T) {
		f := createTestIdentityService(t)

		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(externalIdentity(t, 7, "sub-1", "a@x.com"), nil).Once()

		_, err := f.service.Login(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("correct password on an inactive identity", func(t *testing.T) {
		f := createTestIdentityService(t)
		identity := localIdentity(t, 7, "a@x.com")
		identity.Deactivate(fixedNow)

		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(identity, nil).Once()
		f.hasher.EXPECT().Check("Secret1!", "stored-hash").Return(true).Once()

		_, err := f.service.Login(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrAccountInactive)
	})

	t.Run("wrong password on an inactive identity stays generic", func(t *testing.T) {
		f := createTestIdentityService(t)
		identity := localIdentity(t, 7, "a@x.com")
		identity.Deactivate(fixedNow)

		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(identity, nil).Once()
		f.hasher.EXPECT().Check("Secret1!", "stored-hash").Return(false).Once()

		_, err := f.service.Login(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})

	t.Run("store failures are not credential errors", func(t *testing.T) {
		f := createTestIdentityService(t)
		dbErr := errors.New("connection refused")

		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, dbErr).Once()

		_, err := f.service.Login(ctx, input)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	})
}

func TestProvisionExternal(t *testing.T) {
	ctx := context.Background()
	source := entity.ExternalAuthSource(entity.ProviderGoogle)
	input := &usecase.ProvisionExternalInput{
		Provider:    entity.ProviderGoogle,
		ProviderID:  "sub-1",
		Email:       "a@x.com",
		DisplayName: "Ana Lima",
		PictureURL:  "https://example.com/a.png",
	}

	t.Run("creates a verified external identity", func(t *testing.T) {
		f := createTestIdentityService(t)

		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(nil, repository.ErrIdentityNotFound).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Once()
		f.identityRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Identity")).
			RunAndReturn(func(_ context.Context, identity *entity.Identity) error {
				identity.ID = 9

				return nil
			}).Once()
		expectEvent(f.publisher, service.EventIdentityExternalProvisioned)
		f.tokenIssuer.EXPECT().Issue(int64(9), "a@x.com", trust.RoleUser, fixedNow).Return("T", nil).Once()

		out, err := f.service.ProvisionExternal(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, source, out.Identity.AuthSource)
		assert.Equal(t, "sub-1", out.Identity.ExternalProviderID)
		assert.True(t, out.Identity.EmailVerified)
		assert.False(t, out.Identity.HasPassword())
		assert.Equal(t, "https://example.com/a.png", out.Identity.PictureURL)
	})

	t.Run("verifies the email of an existing local identity", func(t *testing.T) {
		f := createTestIdentityService(t)
		existing := localIdentity(t, 7, "A@x.com")
		existing.Role = trust.RoleAdmin

		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(nil, repository.ErrIdentityNotFound).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(existing, nil).Once()
		f.identityRepo.EXPECT().Update(ctx, existing).Return(nil).Once()
		expectEvent(f.publisher, service.EventIdentityEmailVerified)
		f.tokenIssuer.EXPECT().Issue(int64(7), "A@x.com", trust.RoleAdmin, fixedNow).Return("T", nil).Once()

		out, err := f.service.ProvisionExternal(ctx, input)
		require.NoError(t, err)
		assert.True(t, out.Identity.EmailVerified)
		assert.Equal(t, "stored-hash", out.Identity.PasswordHash)
		assert.Equal(t, trust.RoleAdmin, out.Identity.Role)
		assert.Equal(t, entity.AuthSourceLocal, out.Identity.AuthSource)
	})

	t.Run("returning external identity is not rewritten", func(t *testing.T) {
		f := createTestIdentityService(t)
		existing := externalIdentity(t, 9, "sub-1", "a@x.com")

		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(existing, nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(existing, nil).Once()
		f.tokenIssuer.EXPECT().Issue(int64(9), "a@x.com", trust.RoleUser, fixedNow).Return("T", nil).Once()

		out, err := f.service.ProvisionExternal(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, int64(9), out.Identity.ID)
	})

	t.Run("provider id bound to another identity", func(t *testing.T) {
		f := createTestIdentityService(t)

		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(externalIdentity(t, 3, "sub-1", "old@x.com"), nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Once()

		_, err := f.service.ProvisionExternal(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrExternalIdentityConflict)
	})

	t.Run("inactive identity is rejected", func(t *testing.T) {
		f := createTestIdentityService(t)
		existing := localIdentity(t, 7, "a@x.com")
		existing.Deactivate(fixedNow)

		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(nil, repository.ErrIdentityNotFound).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(existing, nil).Once()

		_, err := f.service.ProvisionExternal(ctx, input)
		assert.ErrorIs(t, err, domainerrors.ErrAccountInactive)
	})

	t.Run("missing claims", func(t *testing.T) {
		f := createTestIdentityService(t)

		_, err := f.service.ProvisionExternal(ctx, &usecase.ProvisionExternalInput{Provider: "google", Email: "a@x.com"})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})
}

func TestProvisionExternal_ConcurrentFirstSignIn(t *testing.T) {
	ctx := context.Background()
	source := entity.ExternalAuthSource(entity.ProviderGoogle)
	input := &usecase.ProvisionExternalInput{
		Provider:   entity.ProviderGoogle,
		ProviderID: "sub-1",
		Email:      "a@x.com",
	}

	t.Run("retries and signs in the identity created by the other request", func(t *testing.T) {
		f := createTestIdentityService(t)
		winner := externalIdentity(t, 11, "sub-1", "a@x.com")

		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(nil, repository.ErrIdentityNotFound).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Once()
		f.identityRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Identity")).
			Return(errors.Wrap(domainerrors.ErrDuplicateEmail, "insert identity")).Once()

		expectTransaction(t, f.txManager, f.identityRepo)
		f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(winner, nil).Once()
		f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(winner, nil).Once()
		f.tokenIssuer.EXPECT().Issue(int64(11), "a@x.com", trust.RoleUser, fixedNow).Return("T", nil).Once()

		out, err := f.service.ProvisionExternal(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, int64(11), out.Identity.ID)
		assert.Equal(t, "T", out.Token)
	})

	t.Run("persistent duplicate is a processing failure", func(t *testing.T) {
		f := createTestIdentityService(t)

		for range 2 {
			expectTransaction(t, f.txManager, f.identityRepo)
			f.identityRepo.EXPECT().FindByExternalID(ctx, source, "sub-1").Return(nil, repository.ErrIdentityNotFound).Once()
			f.identityRepo.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, repository.ErrIdentityNotFound).Once()
			f.identityRepo.EXPECT().Create(ctx, mock.AnythingOfType("*entity.Identity")).
				Return(domainerrors.ErrDuplicateEmail).Once()
		}

		out, err := f.service.ProvisionExternal(ctx, input)
		require.Error(t, err)
		assert.Nil(t, out)
		assert.ErrorIs(t, err, domainerrors.ErrOAuthProcessing)
		assert.NotErrorIs(t, err, domainerrors.ErrDuplicateEmail)
	})
}
