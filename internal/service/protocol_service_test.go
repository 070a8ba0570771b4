package service

import (
	"alcyxob/trainerscribe/internal/storage"
	"bytes"
	"context"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolService_CreateJoinsCustomer(t *testing.T) {
	f := newFixture(t)
	c := f.addCustomer(t)

	p := f.addProtocol(t, c.ID)
	assert.Equal(t, "John Doe", p.CustomerName)
	assert.True(t, p.CustomerResolved)
	assert.Equal(t, time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC), p.EndDate)
	assert.Equal(t, testNow, p.CreatedAt)
	assert.Nil(t, p.SentAt)
	assert.NotEmpty(t, p.Diet.ID)
	assert.NotEmpty(t, p.Workouts[0].Exercises[0].ID)
}

func TestProtocolService_CreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProtocolInput)
		fields []string
	}{
		{"no meals", func(in *ProtocolInput) { in.Meals = nil }, []string{"meals"}},
		{"no workouts", func(in *ProtocolInput) { in.Workouts = []WorkoutInput{} }, []string{"workouts"}},
		{"zero duration", func(in *ProtocolInput) { in.DurationDays = 0 }, []string{"duration_days"}},
		{"no start date", func(in *ProtocolInput) { in.StartDate = time.Time{} }, []string{"start_date"}},
		{"exercise sets", func(in *ProtocolInput) { in.Workouts[0].Exercises[0].Sets = 0 }, []string{"workouts[0].exercises[0].sets"}},
		{"supplement dosage", func(in *ProtocolInput) { in.Supplements[0].Dosage = "" }, []string{"supplements[0].dosage"}},
		{"unknown customer", func(in *ProtocolInput) { in.CustomerID = "ghost" }, []string{"customer_id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := f.addCustomer(t)
			in := validProtocolInput(c.ID)
			tt.mutate(&in)

			_, err := f.protocolSvc.Create(context.Background(), in)
			requireValidationFields(t, err, tt.fields...)
			assert.Empty(t, f.protocols.All())
		})
	}
}

func TestProtocolService_UpdateRecomputesEndDate(t *testing.T) {
	f := newFixture(t)
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)

	days := 7
	updated, err := f.protocolSvc.Update(context.Background(), p.ID, ProtocolUpdate{DurationDays: &days})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), updated.EndDate)
	assert.Equal(t, p.Diet, updated.Diet)
}

func TestProtocolService_UpdateReplacesLists(t *testing.T) {
	f := newFixture(t)
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)

	meals := []MealInput{{Name: "Lunch", Description: "Rice"}, {Name: "Dinner", Description: "Soup"}}
	updated, err := f.protocolSvc.Update(context.Background(), p.ID, ProtocolUpdate{Meals: &meals})
	require.NoError(t, err)
	require.Len(t, updated.Diet.Meals, 2)
	assert.Equal(t, p.Diet.ID, updated.Diet.ID)
	assert.Equal(t, "Dinner", updated.Diet.Meals[1].Name)
	assert.Equal(t, p.Workouts, updated.Workouts)
}

func TestProtocolService_UpdateRejectsEmptyMeals(t *testing.T) {
	f := newFixture(t)
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)

	meals := []MealInput{}
	_, err := f.protocolSvc.Update(context.Background(), p.ID, ProtocolUpdate{Meals: &meals})
	requireValidationFields(t, err, "meals")

	got, err := f.protocolSvc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Diet.Meals, 1)
}

func TestProtocolService_ListFiltersByCustomerName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	john := f.addCustomer(t)

	in := validCustomerInput()
	in.FirstName, in.LastName, in.Email = "Maria", "Silva", "maria@silva.com"
	maria, err := f.customerSvc.Create(ctx, in)
	require.NoError(t, err)

	pj := f.addProtocol(t, john.ID)
	pm := f.addProtocol(t, maria.ID)

	all := f.protocolSvc.List(ctx, "")
	require.Len(t, all, 2)

	got := f.protocolSvc.List(ctx, "silva")
	require.Len(t, got, 1)
	assert.Equal(t, pm.ID, got[0].ID)

	byCustomer, err := f.protocolSvc.ListByCustomer(ctx, john.ID)
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)
	assert.Equal(t, pj.ID, byCustomer[0].ID)

	_, err = f.protocolSvc.ListByCustomer(ctx, "ghost")
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestProtocolService_OrphanedProtocol(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)

	require.NoError(t, f.customerSvc.Delete(ctx, c.ID))

	view, err := f.protocolSvc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, UnknownCustomerName, view.CustomerName)
	assert.False(t, view.CustomerResolved)

	_, err = f.protocolSvc.Export(ctx, p.ID)
	requireValidationFields(t, err, "customer_id")

	got, _ := f.protocols.Get(p.ID)
	assert.Nil(t, got.SentAt)
}

func TestProtocolService_ExportArchivesAndMarksSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)

	res, err := f.protocolSvc.Export(ctx, p.ID)
	require.NoError(t, err)

	assert.Equal(t, "John_Doe_Protocol_2024-05-10.pdf", res.FileName)
	assert.Equal(t, "protocols/"+p.ID+"/John_Doe_Protocol_2024-05-10.pdf", res.ObjectKey)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, testNow, res.SentAt)
	assert.Contains(t, res.DownloadURL, "file://")

	data, err := afero.ReadFile(f.documentsFs, f.documentsDir+"/"+res.ObjectKey)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	got, _ := f.protocols.Get(p.ID)
	require.NotNil(t, got.SentAt)
	assert.Equal(t, testNow, *got.SentAt)
}

func TestProtocolService_ExportKeepsHostileNamesInsideDocumentRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validCustomerInput()
	in.FirstName = "../../../../escaped"
	c, err := f.customerSvc.Create(ctx, in)
	require.NoError(t, err)
	p := f.addProtocol(t, c.ID)

	res, err := f.protocolSvc.Export(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "escaped_Doe_Protocol_2024-05-10.pdf", res.FileName)
	assert.Equal(t, "protocols/"+p.ID+"/escaped_Doe_Protocol_2024-05-10.pdf", res.ObjectKey)

	var outside []string
	require.NoError(t, afero.Walk(f.documentsFs, "/", func(name string, info fs.FileInfo, err error) error {
		if err == nil && !info.IsDir() && !strings.HasPrefix(name, f.documentsDir+"/") && !strings.HasPrefix(name, "/snapshots/") {
			outside = append(outside, name)
		}
		return err
	}))
	assert.Empty(t, outside)
}

func TestProtocolService_DeleteRemovesArchivedDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)
	other := f.addProtocol(t, c.ID)

	res, err := f.protocolSvc.Export(ctx, p.ID)
	require.NoError(t, err)
	kept, err := f.protocolSvc.Export(ctx, other.ID)
	require.NoError(t, err)

	require.NoError(t, f.protocolSvc.Delete(ctx, p.ID))

	_, err = f.documents.PresignedDownloadURL(ctx, res.ObjectKey, time.Minute)
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
	_, err = f.documents.PresignedDownloadURL(ctx, kept.ObjectKey, time.Minute)
	require.NoError(t, err)

	// Never exported and already deleted are both fine.
	require.NoError(t, f.protocolSvc.Delete(ctx, p.ID))
	require.NoError(t, f.protocolSvc.Delete(ctx, "missing"))
}

func TestProtocolService_DeleteSucceedsWhenCleanupFails(t *testing.T) {
	f := newFixture(t, withDocuments(brokenDocuments{}))
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)

	require.NoError(t, f.protocolSvc.Delete(context.Background(), p.ID))
	_, ok := f.protocols.Get(p.ID)
	assert.False(t, ok)
}

func TestProtocolService_OrphanedProtocolStaysEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)
	require.NoError(t, f.customerSvc.Delete(ctx, c.ID))

	days := 45
	view, err := f.protocolSvc.Update(ctx, p.ID, ProtocolUpdate{DurationDays: &days})
	require.NoError(t, err)
	assert.Equal(t, 45, view.DurationDays)
	assert.Equal(t, UnknownCustomerName, view.CustomerName)

	ghost := "ghost"
	_, err = f.protocolSvc.Update(ctx, p.ID, ProtocolUpdate{CustomerID: &ghost})
	requireValidationFields(t, err, "customer_id")

	replacement := f.addCustomer(t)
	view, err = f.protocolSvc.Update(ctx, p.ID, ProtocolUpdate{CustomerID: &replacement.ID})
	require.NoError(t, err)
	assert.True(t, view.CustomerResolved)
}

func TestProtocolService_ExportFailuresDoNotMarkSent(t *testing.T) {
	tests := []struct {
		name string
		opt  fixtureOption
	}{
		{"render fails", withRenderer(failingRenderer{})},
		{"archive fails", withDocuments(brokenDocuments{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.opt)
			c := f.addCustomer(t)
			p := f.addProtocol(t, c.ID)

			_, err := f.protocolSvc.Export(context.Background(), p.ID)
			require.ErrorIs(t, err, ErrExportFailed)

			got, _ := f.protocols.Get(p.ID)
			assert.Nil(t, got.SentAt)
		})
	}
}

func TestProtocolService_PreviewHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addCustomer(t)
	p := f.addProtocol(t, c.ID)

	out, err := f.protocolSvc.Preview(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF")))

	got, _ := f.protocols.Get(p.ID)
	assert.Nil(t, got.SentAt)

	exists, err := afero.DirExists(f.documentsFs, f.documentsDir+"/protocols")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.protocolSvc.Preview(ctx, "missing")
	require.ErrorIs(t, err, ErrProtocolNotFound)
}

func TestProtocolService_Dashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addCustomer(t)

	active := validProtocolInput(c.ID)
	active.StartDate = testNow
	expired := validProtocolInput(c.ID)
	expired.StartDate = testNow.AddDate(0, -3, 0)

	_, err := f.protocolSvc.Create(ctx, active)
	require.NoError(t, err)
	_, err = f.protocolSvc.Create(ctx, expired)
	require.NoError(t, err)

	d := f.protocolSvc.Dashboard(ctx)
	assert.Equal(t, 1, d.ActiveCount)
	assert.Equal(t, 1, d.ExpiredCount)
	require.Len(t, d.Recent, 2)
	assert.Equal(t, "John Doe", d.Recent[0].CustomerName)
}
