// Package persistence selects the credential store backend.
package persistence

import (
	"log/slog"

	"ledger/config"
	"ledger/internal/domain/repository"
	"ledger/internal/errors"
	"ledger/internal/infra/persistence/memory"
	"ledger/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

// StoreParams holds dependencies for the store, injected by Fx.
type StoreParams struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Stores exposes the selected backend to the rest of the graph.
type Stores struct {
	fx.Out

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
}

// NewStore builds the backend named by store.driver.
func NewStore(params StoreParams) (Stores, error) {
	switch params.Config.Store.Driver {
	case config.StoreDriverMemory:
		params.Logger.Warn("Using the in-memory credential store; identities are lost on restart")
		store := memory.NewStore()

		return Stores{
			TxManager:    store.TransactionManager(),
			IdentityRepo: store.IdentityRepository(),
		}, nil
	case config.StoreDriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return Stores{}, err
		}

		return Stores{
			TxManager:    postgres.NewTransactionManager(db),
			IdentityRepo: postgres.NewIdentityRepository(db),
		}, nil
	default:
		return Stores{}, errors.Errorf("unknown store driver: %s", params.Config.Store.Driver)
	}
}
