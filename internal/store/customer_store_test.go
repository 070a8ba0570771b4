package store

import (
	"alcyxob/trainerscribe/internal/domain"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCustomerStore(t *testing.T) *CustomerStore {
	t.Helper()
	return NewCustomerStore(newMemoryRepository(t), WithIDGenerator(sequentialIDs()))
}

func johnDoe() domain.NewCustomer {
	return domain.NewCustomer{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john.doe@gmail.com",
		City:      "Recife",
		UF:        "PE",
		PlanID:    "5f0c6a52-8a0f-4a4e-9f35-1b1f1b3a9c11",
	}
}

func TestCustomerStore_AddThenGet(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	in := johnDoe()
	got, err := s.Add(ctx, in)
	require.NoError(t, err)

	require.NotEmpty(t, got.ID)
	require.NotEmpty(t, got.AnamnesisID)
	require.Equal(t, domain.StatusActive, got.Status)

	stored, ok := s.Get(got.ID)
	require.True(t, ok)
	require.Equal(t, got, stored)
	require.Equal(t, in.FirstName, stored.FirstName)
	require.Equal(t, in.Email, stored.Email)
}

func TestCustomerStore_AddKeepsExplicitStatus(t *testing.T) {
	s := newCustomerStore(t)

	in := johnDoe()
	in.Status = domain.StatusBlocked
	got, err := s.Add(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, domain.StatusBlocked, got.Status)
}

func TestCustomerStore_StatusStaysEnumerated(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	in := johnDoe()
	in.Status = "PAUSED"
	got, err := s.Add(ctx, in)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, got.Status)

	empty := domain.CustomerStatus("")
	require.NoError(t, s.Update(ctx, got.ID, domain.CustomerPatch{Status: &empty}))
	stored, ok := s.Get(got.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusActive, stored.Status)
}

func TestCustomerStore_DeleteIsIdempotent(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	c, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, c.ID))
	_, ok := s.Get(c.ID)
	require.False(t, ok)

	require.NoError(t, s.Delete(ctx, c.ID))
	require.NoError(t, s.Delete(ctx, "never-created"))
	_, ok = s.Get("never-created")
	require.False(t, ok)
}

func TestCustomerStore_UpdateOnlyTouchesPatchedFields(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	c, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)

	phone := "(81) 99999-8888"
	require.NoError(t, s.Update(ctx, c.ID, domain.CustomerPatch{Phone: &phone}))

	got, ok := s.Get(c.ID)
	require.True(t, ok)

	want := c
	want.Phone = phone
	require.Equal(t, want, got)
}

func TestCustomerStore_UpdateMissingIsNoop(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	c, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)

	var events []Event
	s.Subscribe(func(e Event) { events = append(events, e) })

	name := "Jane"
	require.NoError(t, s.Update(ctx, "missing", domain.CustomerPatch{FirstName: &name}))

	got, _ := s.Get(c.ID)
	require.Equal(t, c, got)
	require.Empty(t, events)
}

func TestCustomerStore_SearchEmptyTermReturnsAllInOrder(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"Carla", "Ana", "Bruno"} {
		in := johnDoe()
		in.FirstName = name
		c, err := s.Add(ctx, in)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	var got []string
	for _, c := range s.List("") {
		got = append(got, c.ID)
	}
	require.Equal(t, ids, got)
}

func TestCustomerStore_SearchIsCaseInsensitive(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	john, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)

	other := johnDoe()
	other.FirstName, other.LastName, other.Email = "Maria", "Silva", "maria@silva.com"
	maria, err := s.Add(ctx, other)
	require.NoError(t, err)

	tests := []struct {
		term string
		want []string
	}{
		{"JOHN", []string{john.ID}},
		{"gmail", []string{john.ID}},
		{"silva", []string{maria.ID}},
		{"mAr", []string{maria.ID}},
		{".com", []string{john.ID, maria.ID}},
		{"nobody", nil},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			var got []string
			for c := range s.Search(tt.term) {
				got = append(got, c.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCustomerStore_SearchIsRestartableSnapshot(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)

	seq := s.Search("")
	_, err = s.Add(ctx, johnDoe())
	require.NoError(t, err)

	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	require.Equal(t, 1, count())
	require.Equal(t, 1, count())
	require.Equal(t, 2, s.Len())
}

func TestCustomerStore_PersistsAndReloads(t *testing.T) {
	repo := newMemoryRepository(t)
	ctx := context.Background()

	s := NewCustomerStore(repo)
	a, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)
	b, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, a.ID))

	reloaded := NewCustomerStore(repo)
	require.NoError(t, reloaded.Load(ctx))
	require.Equal(t, []domain.Customer{b}, reloaded.List(""))
}

func TestCustomerStore_FailedSaveLeavesStateUntouched(t *testing.T) {
	repo := &flakyRepository{SnapshotRepository: newMemoryRepository(t)}
	s := NewCustomerStore(repo)
	ctx := context.Background()

	c, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)

	repo.broken = true
	_, err = s.Add(ctx, johnDoe())
	require.Error(t, err)
	require.Error(t, s.Delete(ctx, c.ID))

	require.Equal(t, 1, s.Len())
	_, ok := s.Get(c.ID)
	require.True(t, ok)
}

func TestCustomerStore_ObserversReceiveEvents(t *testing.T) {
	s := newCustomerStore(t)
	ctx := context.Background()

	var events []Event
	cancel := s.Subscribe(func(e Event) { events = append(events, e) })

	c, err := s.Add(ctx, johnDoe())
	require.NoError(t, err)
	city := "Olinda"
	require.NoError(t, s.Update(ctx, c.ID, domain.CustomerPatch{City: &city}))

	cancel()
	require.NoError(t, s.Delete(ctx, c.ID))

	require.Equal(t, []Event{
		{Collection: customersCollection, Kind: EventAdded, ID: c.ID},
		{Collection: customersCollection, Kind: EventUpdated, ID: c.ID},
	}, events)
}
