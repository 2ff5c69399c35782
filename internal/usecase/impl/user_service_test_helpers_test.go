package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"ledger/internal/domain/entity"
	"ledger/internal/domain/repository"
	mockRepo "ledger/internal/mocks/repository"
	"ledger/trust"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() time.Time {
	return fixedNow
}

// expectTransaction makes txManager run its callback against repo.
func expectTransaction(t *testing.T, txManager *mockRepo.MockTransactionManager, repo *mockRepo.MockIdentityRepository) {
	t.Helper()

	factory := mockRepo.NewMockRepositoryFactory(t)
	factory.EXPECT().IdentityRepo().Return(repo).Maybe()

	txManager.EXPECT().
		Execute(mock.Anything, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(_ context.Context, fn func(repository.RepositoryFactory) error) error {
			return fn(factory)
		}).
		Once()
}

func localIdentity(t *testing.T, id int64, email string) *entity.Identity {
	t.Helper()

	identity, err := entity.NewLocalIdentity(email, "Ana", "stored-hash", fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	identity.ID = id

	return identity
}

func externalIdentity(t *testing.T, id int64, providerID, email string) *entity.Identity {
	t.Helper()

	identity, err := entity.NewExternalIdentity(entity.ProviderGoogle, providerID, email, "Ana", "", fixedNow.Add(-time.Hour))
	require.NoError(t, err)
	identity.ID = id

	return identity
}

func adminIdentity(t *testing.T, id int64) *entity.Identity {
	t.Helper()

	identity := localIdentity(t, id, "root@x.com")
	identity.Role = trust.RoleAdmin

	return identity
}
