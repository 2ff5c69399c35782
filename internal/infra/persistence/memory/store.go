// Package memory provides an in-process credential store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ledger/internal/domain/entity"
	domainerrors "ledger/internal/domain/errors"
	"ledger/internal/domain/repository"

	"github.com/pkg/errors"
)

// Store keeps identities in maps guarded by a mutex. Transactions are
// serialized and roll back by restoring a snapshot.
type Store struct {
	// txMu is held for the whole of a transaction and for every single
	// operation outside one, so a transaction observes no concurrent writes.
	txMu sync.Mutex

	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*entity.Identity
	now    func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		nextID: 1,
		byID:   make(map[int64]*entity.Identity),
		now:    time.Now,
	}
}

// TransactionManager returns a manager running callbacks against this store.
func (s *Store) TransactionManager() repository.TransactionManager {
	return &txManager{store: s}
}

// IdentityRepository returns a repository for use outside transactions.
func (s *Store) IdentityRepository() repository.IdentityRepository {
	return &identityRepository{store: s, locked: false}
}

type snapshot struct {
	nextID int64
	byID   map[int64]*entity.Identity
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[int64]*entity.Identity, len(s.byID))
	for id, identity := range s.byID {
		byID[id] = clone(identity)
	}

	return snapshot{nextID: s.nextID, byID: byID}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = snap.nextID
	s.byID = snap.byID
}

type txManager struct {
	store *Store
}

// Execute runs fn with exclusive access to the store. Changes are discarded
// when fn returns an error or panics.
func (tm *txManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	snap := tm.store.snapshot()

	defer func() {
		if r := recover(); r != nil {
			tm.store.restore(snap)
			panic(r)
		}
	}()

	if err := fn(&repositoryFactory{store: tm.store}); err != nil {
		tm.store.restore(snap)

		return err
	}

	return nil
}

type repositoryFactory struct {
	store *Store
}

// IdentityRepo returns a repository that already holds the transaction lock.
func (f *repositoryFactory) IdentityRepo() repository.IdentityRepository {
	return &identityRepository{store: f.store, locked: true}
}

type identityRepository struct {
	store  *Store
	locked bool
}

func (r *identityRepository) enter() func() {
	if r.locked {
		return func() {}
	}
	r.store.txMu.Lock()

	return r.store.txMu.Unlock
}

func (r *identityRepository) FindByID(ctx context.Context, id int64) (*entity.Identity, error) {
	defer r.enter()()

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrIdentityNotFound
	}

	return clone(identity), nil
}

func (r *identityRepository) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	defer r.enter()()

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if identity := s.findByEmailKey(entity.NormalizeEmail(email)); identity != nil {
		return clone(identity), nil
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *identityRepository) FindByExternalID(ctx context.Context, source entity.AuthSource, providerID string) (*entity.Identity, error) {
	defer r.enter()()

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	if identity := s.findByExternalID(source, providerID); identity != nil {
		return clone(identity), nil
	}

	return nil, repository.ErrIdentityNotFound
}

func (r *identityRepository) ListActive(ctx context.Context) ([]*entity.Identity, error) {
	defer r.enter()()

	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	identities := make([]*entity.Identity, 0, len(s.byID))
	for _, identity := range s.byID {
		if identity.Active {
			identities = append(identities, clone(identity))
		}
	}
	sort.Slice(identities, func(i, j int) bool {
		return identities[i].ID < identities[j].ID
	})

	return identities, nil
}

func (r *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	defer r.enter()()

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUnique(identity, 0); err != nil {
		return errors.Wrap(err, "failed to create identity")
	}

	now := s.now()
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = now
	}
	if identity.UpdatedAt.IsZero() {
		identity.UpdatedAt = now
	}
	identity.ID = s.nextID
	s.nextID++
	s.byID[identity.ID] = clone(identity)

	return nil
}

func (r *identityRepository) Update(ctx context.Context, identity *entity.Identity) error {
	defer r.enter()()

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[identity.ID]
	if !ok {
		return repository.ErrIdentityNotFound
	}
	if err := s.checkUnique(identity, identity.ID); err != nil {
		return errors.Wrap(err, "failed to update identity")
	}

	updated := clone(identity)
	updated.CreatedAt = existing.CreatedAt
	s.byID[identity.ID] = updated

	return nil
}

// checkUnique enforces the same unique keys as the identities table, ignoring the row with id self.
func (s *Store) checkUnique(identity *entity.Identity, self int64) error {
	if other := s.findByEmailKey(identity.EmailKey()); other != nil && other.ID != self {
		return domainerrors.ErrDuplicateEmail
	}
	if identity.ExternalProviderID != "" {
		if other := s.findByExternalID(identity.AuthSource, identity.ExternalProviderID); other != nil && other.ID != self {
			return domainerrors.ErrExternalIdentityConflict
		}
	}

	return nil
}

func (s *Store) findByEmailKey(key string) *entity.Identity {
	for _, identity := range s.byID {
		if identity.EmailKey() == key {
			return identity
		}
	}

	return nil
}

func (s *Store) findByExternalID(source entity.AuthSource, providerID string) *entity.Identity {
	if providerID == "" {
		return nil
	}
	for _, identity := range s.byID {
		if identity.AuthSource == source && identity.ExternalProviderID == providerID {
			return identity
		}
	}

	return nil
}

func clone(identity *entity.Identity) *entity.Identity {
	c := *identity

	return &c
}
