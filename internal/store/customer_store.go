package store

import (
	"alcyxob/trainerscribe/internal/domain"
	"alcyxob/trainerscribe/internal/repository"
	"context"
	"iter"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const customersCollection = "customers"

// CustomerStore owns the customer collection.
type CustomerStore struct {
	mu        sync.RWMutex
	customers []domain.Customer // replaced wholesale on every mutation, never edited in place
	repo      repository.SnapshotRepository
	opts      options
	log       *zap.Logger
	observers observerList
}

// NewCustomerStore creates an empty store persisting through repo. Call Load
// to restore a previous snapshot.
func NewCustomerStore(repo repository.SnapshotRepository, opts ...Option) *CustomerStore {
	o := buildOptions(opts)
	return &CustomerStore{
		repo: repo,
		opts: o,
		log:  o.logger.With(zap.String("collection", customersCollection)),
	}
}

// Load replaces the in-memory collection with the persisted snapshot.
func (s *CustomerStore) Load(ctx context.Context) error {
	customers, err := loadSnapshot[domain.Customer](ctx, s.repo, repository.CustomersKey)
	if err != nil {
		return err
	}
	for i := range customers {
		if !customers[i].Status.Valid() {
			customers[i].Status = domain.StatusActive
		}
	}

	s.mu.Lock()
	s.customers = customers
	s.mu.Unlock()

	s.log.Info("snapshot loaded", zap.Int("count", len(customers)))
	return nil
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *CustomerStore) Subscribe(fn Observer) (cancel func()) {
	return s.observers.subscribe(fn)
}

// Add assigns a fresh id, an anamnesis id and, unless a valid one was given,
// the ACTIVE status, then appends.
func (s *CustomerStore) Add(ctx context.Context, in domain.NewCustomer) (domain.Customer, error) {
	status := in.Status
	if !status.Valid() {
		status = domain.StatusActive
	}
	c := domain.Customer{
		ID:          s.opts.newID(),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		NickName:    in.NickName,
		Email:       in.Email,
		Document:    in.Document,
		Phone:       in.Phone,
		Address:     in.Address,
		City:        in.City,
		UF:          in.UF,
		Zip:         in.Zip,
		Country:     in.Country,
		Status:      status,
		PlanID:      in.PlanID,
		AnamnesisID: s.opts.newID(),
	}

	s.mu.Lock()
	next := append(slices.Clip(s.customers), c)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return domain.Customer{}, err
	}
	s.mu.Unlock()

	s.log.Debug("customer added", zap.String("id", c.ID))
	s.observers.notify(Event{Collection: customersCollection, Kind: EventAdded, ID: c.ID})
	return c, nil
}

// Update merges the present fields of patch into the customer with id.
// A missing id is a silent no-op.
func (s *CustomerStore) Update(ctx context.Context, id string, patch domain.CustomerPatch) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	next := slices.Clone(s.customers)
	patch.Apply(&next[idx])
	next[idx].ID = id
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.observers.notify(Event{Collection: customersCollection, Kind: EventUpdated, ID: id})
	return nil
}

// Delete removes the customer with id. Deleting an unknown id is a no-op.
// Protocols that reference the customer are left untouched.
func (s *CustomerStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	next := slices.Delete(slices.Clone(s.customers), idx, idx+1)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.log.Debug("customer deleted", zap.String("id", id))
	s.observers.notify(Event{Collection: customersCollection, Kind: EventDeleted, ID: id})
	return nil
}

// Get returns the customer with id.
func (s *CustomerStore) Get(id string) (domain.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.customers[idx], true
	}
	return domain.Customer{}, false
}

// Search yields, in insertion order, the customers whose first name, last name
// or email contains term case-insensitively. An empty term yields everyone.
// The sequence walks the snapshot taken at call time and can be restarted.
func (s *CustomerStore) Search(term string) iter.Seq[domain.Customer] {
	s.mu.RLock()
	snapshot := s.customers
	s.mu.RUnlock()

	needle := strings.ToLower(term)
	return func(yield func(domain.Customer) bool) {
		for _, c := range snapshot {
			if !matchesCustomer(c, needle) {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// List collects Search(term) into a slice.
func (s *CustomerStore) List(term string) []domain.Customer {
	out := slices.Collect(s.Search(term))
	if out == nil {
		out = []domain.Customer{}
	}
	return out
}

// Len returns the collection size.
func (s *CustomerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers)
}

func matchesCustomer(c domain.Customer, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.FirstName), needle) ||
		strings.Contains(strings.ToLower(c.LastName), needle) ||
		strings.Contains(strings.ToLower(c.Email), needle)
}

// indexOf must be called with s.mu held.
func (s *CustomerStore) indexOf(id string) int {
	return slices.IndexFunc(s.customers, func(c domain.Customer) bool { return c.ID == id })
}

// commit persists next and swaps it in. Must be called with s.mu held.
func (s *CustomerStore) commit(ctx context.Context, next []domain.Customer) error {
	if err := saveSnapshot(ctx, s.repo, repository.CustomersKey, next); err != nil {
		s.log.Error("persist failed", zap.Error(err))
		return err
	}
	s.customers = next
	return nil
}
