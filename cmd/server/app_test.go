package main

import (
	"alcyxob/trainerscribe/internal/config"
	"alcyxob/trainerscribe/internal/service"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, backend string) config.Config {
	dir := t.TempDir()
	return config.Config{
		Storage:   config.StorageConfig{Backend: backend, Dir: filepath.Join(dir, "snapshots")},
		SQLite:    config.SQLiteConfig{Path: filepath.Join(dir, "trainerscribe.db")},
		Documents: config.DocumentsConfig{Backend: "local", Dir: filepath.Join(dir, "documents"), URLExpiry: time.Minute},
		JWT:       config.JWTConfig{Secret: "test", Expiration: time.Hour},
	}
}

func TestNewApp_StateSurvivesRestart(t *testing.T) {
	for _, backend := range []string{"file", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t, backend)

			a, err := newApp(ctx, cfg, zap.NewNop(), nil)
			require.NoError(t, err)

			c, err := a.customerSvc.Create(ctx, service.CustomerInput{
				FirstName: "John",
				Email:     "john.doe@gmail.com",
				City:      "Recife",
				UF:        "PE",
				PlanID:    "5f0c6a52-8a0f-4a4e-9f35-1b1f1b3a9c11",
			})
			require.NoError(t, err)

			p, err := a.protocolSvc.Create(ctx, service.ProtocolInput{
				CustomerID:   c.ID,
				DurationDays: 10,
				StartDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
				Meals:        []service.MealInput{{Name: "Breakfast", Description: "Eggs"}},
				Workouts:     []service.WorkoutInput{{Name: "Full body"}},
			})
			require.NoError(t, err)

			res, err := a.protocolSvc.Export(ctx, p.ID)
			require.NoError(t, err)
			assert.FileExists(t, filepath.Join(cfg.Documents.Dir, filepath.FromSlash(res.ObjectKey)))
			require.NoError(t, a.Close())

			restarted, err := newApp(ctx, cfg, zap.NewNop(), nil)
			require.NoError(t, err)
			defer restarted.Close()

			got, err := restarted.protocolSvc.Get(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, "John", got.CustomerName)
			require.NotNil(t, got.SentAt)
			assert.True(t, res.SentAt.Equal(*got.SentAt))
		})
	}
}
