// Package store holds the customer and protocol collections as explicitly owned
// state containers. Every mutation persists the whole collection snapshot before
// it becomes visible, and observers are notified synchronously afterwards.
package store

import (
	"alcyxob/trainerscribe/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventKind names the mutation that produced an Event.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	EventSent    EventKind = "sent"
)

// Event is delivered to observers after a mutation has been persisted.
type Event struct {
	Collection string
	Kind       EventKind
	ID         string
}

// Observer receives change notifications. It runs on the mutating goroutine
// after the store lock has been released.
type Observer func(Event)

type options struct {
	clock  func() time.Time
	newID  func() string
	logger *zap.Logger
}

// Option configures a store.
type Option func(*options)

// WithClock replaces time.Now, e.g. to fix "now" in tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLogger sets the structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:  time.Now,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type observerList struct {
	mu   sync.Mutex
	next int
	fns  []registeredObserver
}

type registeredObserver struct {
	id int
	fn Observer
}

func (l *observerList) subscribe(fn Observer) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.next
	l.next++
	l.fns = append(l.fns, registeredObserver{id: id, fn: fn})

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, r := range l.fns {
			if r.id == id {
				l.fns = append(l.fns[:i:i], l.fns[i+1:]...)
				return
			}
		}
	}
}

func (l *observerList) notify(e Event) {
	l.mu.Lock()
	fns := make([]registeredObserver, len(l.fns))
	copy(fns, l.fns)
	l.mu.Unlock()

	for _, r := range fns {
		r.fn(e)
	}
}

func saveSnapshot[T any](ctx context.Context, repo repository.SnapshotRepository, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	if err := repo.Save(ctx, key, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

func loadSnapshot[T any](ctx context.Context, repo repository.SnapshotRepository, key string) ([]T, error) {
	data, err := repo.Load(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return items, nil
}
