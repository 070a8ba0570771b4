package store

import (
	"alcyxob/trainerscribe/internal/domain"
	"alcyxob/trainerscribe/internal/repository"
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

const protocolsCollection = "protocols"

// DefaultRecentLimit is used by Recent when no positive limit is given.
const DefaultRecentLimit = 5

// ProtocolStore owns the protocol collection.
type ProtocolStore struct {
	mu        sync.RWMutex
	protocols []domain.Protocol // replaced wholesale on every mutation, never edited in place
	repo      repository.SnapshotRepository
	opts      options
	log       *zap.Logger
	observers observerList
}

// NewProtocolStore creates an empty store persisting through repo. Call Load
// to restore a previous snapshot.
func NewProtocolStore(repo repository.SnapshotRepository, opts ...Option) *ProtocolStore {
	o := buildOptions(opts)
	return &ProtocolStore{
		repo: repo,
		opts: o,
		log:  o.logger.With(zap.String("collection", protocolsCollection)),
	}
}

// Load replaces the in-memory collection with the persisted snapshot.
// End dates are re-derived so a stale snapshot cannot break the invariant.
func (s *ProtocolStore) Load(ctx context.Context) error {
	protocols, err := loadSnapshot[domain.Protocol](ctx, s.repo, repository.ProtocolsKey)
	if err != nil {
		return err
	}
	for i := range protocols {
		protocols[i].EndDate = domain.EndDateFor(protocols[i].StartDate, protocols[i].DurationDays)
	}

	s.mu.Lock()
	s.protocols = protocols
	s.mu.Unlock()

	s.log.Info("snapshot loaded", zap.Int("count", len(protocols)))
	return nil
}

// Subscribe registers fn for change notifications and returns its cancel func.
func (s *ProtocolStore) Subscribe(fn Observer) (cancel func()) {
	return s.observers.subscribe(fn)
}

// Add assigns a fresh id and creation time, derives the end date and appends.
func (s *ProtocolStore) Add(ctx context.Context, in domain.NewProtocol) (domain.Protocol, error) {
	p := domain.Protocol{
		ID:           s.opts.newID(),
		CustomerID:   in.CustomerID,
		Diet:         in.Diet,
		Workouts:     in.Workouts,
		Supplements:  in.Supplements,
		StartDate:    in.StartDate,
		EndDate:      domain.EndDateFor(in.StartDate, in.DurationDays),
		DurationDays: in.DurationDays,
		CreatedAt:    s.opts.clock(),
	}
	p = p.Clone()

	s.mu.Lock()
	next := append(slices.Clip(s.protocols), p)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return domain.Protocol{}, err
	}
	s.mu.Unlock()

	s.log.Debug("protocol added", zap.String("id", p.ID), zap.String("customer_id", p.CustomerID))
	s.observers.notify(Event{Collection: protocolsCollection, Kind: EventAdded, ID: p.ID})
	return p.Clone(), nil
}

// Update merges patch into the protocol with id and re-derives its end date.
// A missing id is a silent no-op.
func (s *ProtocolStore) Update(ctx context.Context, id string, patch domain.ProtocolPatch) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	next := slices.Clone(s.protocols)
	updated := next[idx].Clone()
	patch.Apply(&updated)
	next[idx] = updated
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.observers.notify(Event{Collection: protocolsCollection, Kind: EventUpdated, ID: id})
	return nil
}

// Delete removes the protocol with id unconditionally. Unknown ids are a no-op.
func (s *ProtocolStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	next := slices.Delete(slices.Clone(s.protocols), idx, idx+1)
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.log.Debug("protocol deleted", zap.String("id", id))
	s.observers.notify(Event{Collection: protocolsCollection, Kind: EventDeleted, ID: id})
	return nil
}

// Get returns a detached copy of the protocol with id.
func (s *ProtocolStore) Get(id string) (domain.Protocol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.protocols[idx].Clone(), true
	}
	return domain.Protocol{}, false
}

// MarkSent records the current time as the sent timestamp. The first call
// wins: once set, sent_at never changes. Unknown ids are a no-op.
func (s *ProtocolStore) MarkSent(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || s.protocols[idx].SentAt != nil {
		s.mu.Unlock()
		return nil
	}

	next := slices.Clone(s.protocols)
	sentAt := s.opts.clock()
	next[idx].SentAt = &sentAt
	if err := s.commit(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.log.Info("protocol marked sent", zap.String("id", id), zap.Time("sent_at", sentAt))
	s.observers.notify(Event{Collection: protocolsCollection, Kind: EventSent, ID: id})
	return nil
}

// All returns copies of every protocol in insertion order.
func (s *ProtocolStore) All() []domain.Protocol {
	return s.filter(func(domain.Protocol) bool { return true })
}

// Active returns the protocols whose end date is strictly after now.
func (s *ProtocolStore) Active() []domain.Protocol {
	active, _ := s.Partition()
	return active
}

// Expired returns the complement of Active; a protocol ending exactly now is expired.
func (s *ProtocolStore) Expired() []domain.Protocol {
	_, expired := s.Partition()
	return expired
}

// Partition splits one snapshot of the collection at a single reading of the
// clock, so every protocol lands in exactly one of the two slices.
func (s *ProtocolStore) Partition() (active, expired []domain.Protocol) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.opts.clock()
	active = make([]domain.Protocol, 0, len(s.protocols))
	expired = make([]domain.Protocol, 0, len(s.protocols))
	for _, p := range s.protocols {
		if p.IsActiveAt(now) {
			active = append(active, p.Clone())
		} else {
			expired = append(expired, p.Clone())
		}
	}
	return active, expired
}

// Recent returns up to limit protocols, newest first. The sort runs on a copy,
// so the collection order is never affected.
func (s *ProtocolStore) Recent(limit int) []domain.Protocol {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out := s.All()
	slices.SortStableFunc(out, func(a, b domain.Protocol) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByCustomer returns the protocols that reference customerID.
func (s *ProtocolStore) ByCustomer(customerID string) []domain.Protocol {
	return s.filter(func(p domain.Protocol) bool { return p.CustomerID == customerID })
}

func (s *ProtocolStore) filter(keep func(domain.Protocol) bool) []domain.Protocol {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Protocol, 0, len(s.protocols))
	for _, p := range s.protocols {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// indexOf must be called with s.mu held.
func (s *ProtocolStore) indexOf(id string) int {
	return slices.IndexFunc(s.protocols, func(p domain.Protocol) bool { return p.ID == id })
}

// commit persists next and swaps it in. Must be called with s.mu held.
func (s *ProtocolStore) commit(ctx context.Context, next []domain.Protocol) error {
	if err := saveSnapshot(ctx, s.repo, repository.ProtocolsKey, next); err != nil {
		s.log.Error("persist failed", zap.Error(err))
		return err
	}
	s.protocols = next
	return nil
}
