package service

import (
	"alcyxob/trainerscribe/internal/domain"
	"alcyxob/trainerscribe/internal/export"
	"alcyxob/trainerscribe/internal/repository/file"
	"alcyxob/trainerscribe/internal/storage"
	"alcyxob/trainerscribe/internal/store"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	customers    *store.CustomerStore
	protocols    *store.ProtocolStore
	documents    storage.DocumentStorage
	customerSvc  CustomerService
	protocolSvc  ProtocolService
	documentsFs  afero.Fs
	documentsDir string
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	renderer  DocumentRenderer
	documents storage.DocumentStorage
}

func withRenderer(r DocumentRenderer) fixtureOption {
	return func(c *fixtureConfig) { c.renderer = r }
}

func withDocuments(d storage.DocumentStorage) fixtureOption {
	return func(c *fixtureConfig) { c.documents = d }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	repo, err := file.NewFileSnapshotRepository(afero.NewMemMapFs(), "/snapshots")
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	customers := store.NewCustomerStore(repo, store.WithClock(clock))
	protocols := store.NewProtocolStore(repo, store.WithClock(clock))

	docFs := afero.NewMemMapFs()
	docs, err := storage.NewLocalStorage(docFs, "/documents", zap.NewNop())
	require.NoError(t, err)

	cfg := fixtureConfig{
		renderer:  export.NewExporter(zap.NewNop(), clock),
		documents: docs,
	}
	for _, o := range opts {
		o(&cfg)
	}

	return &fixture{
		customers:    customers,
		protocols:    protocols,
		documents:    cfg.documents,
		customerSvc:  NewCustomerService(customers, zap.NewNop()),
		protocolSvc:  NewProtocolService(protocols, customers, cfg.renderer, cfg.documents, time.Minute, zap.NewNop()),
		documentsFs:  docFs,
		documentsDir: "/documents",
	}
}

func validCustomerInput() CustomerInput {
	return CustomerInput{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john.doe@gmail.com",
		Phone:     "81999998888",
		City:      "Recife",
		UF:        "pe",
		Zip:       "50000000",
		Document:  "12345678901",
		PlanID:    "5f0c6a52-8a0f-4a4e-9f35-1b1f1b3a9c11",
	}
}

func validProtocolInput(customerID string) ProtocolInput {
	return ProtocolInput{
		CustomerID:   customerID,
		DurationDays: 30,
		StartDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Meals:        []MealInput{{Name: "Breakfast", Description: "Oats with banana and honey"}},
		Workouts: []WorkoutInput{{Name: "Upper body", Exercises: []ExerciseInput{
			{Name: "Bench press", Sets: 3, Reps: 12},
		}}},
		Supplements: []SupplementInput{{Name: "Creatine", Dosage: "5g", Frequency: "daily"}},
	}
}

func (f *fixture) addCustomer(t *testing.T) *domain.Customer {
	t.Helper()
	c, err := f.customerSvc.Create(context.Background(), validCustomerInput())
	require.NoError(t, err)
	return c
}

func (f *fixture) addProtocol(t *testing.T, customerID string) *ProtocolView {
	t.Helper()
	p, err := f.protocolSvc.Create(context.Background(), validProtocolInput(customerID))
	require.NoError(t, err)
	return p
}

func requireValidationFields(t *testing.T, err error, fields ...string) {
	t.Helper()
	require.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	got := make([]string, len(verr.Fields))
	for i, f := range verr.Fields {
		got[i] = f.Field
	}
	require.ElementsMatch(t, fields, got)
}

type failingRenderer struct{}

func (failingRenderer) Render(domain.Protocol, *domain.Customer) (*export.Output, error) {
	return nil, export.ErrRenderFailed
}

// brokenDocuments rejects every Put and ListObjects.
type brokenDocuments struct {
	storage.DocumentStorage
}

func (brokenDocuments) Put(context.Context, string, string, []byte) error {
	return errors.New("bucket unavailable")
}

func (brokenDocuments) ListObjects(context.Context, string) ([]string, error) {
	return nil, errors.New("bucket unavailable")
}
