package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_BACKEND", "sqlite")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "local", cfg.Documents.Backend)
	assert.Equal(t, 15*time.Minute, cfg.Documents.URLExpiry)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9090"
storage:
  backend: mongo
database:
  uri: mongodb://mongo:27017
  name: trainers
documents:
  backend: s3
s3:
  endpoint: http://minio:9000
  bucket_name: protocols
jwt:
  secret: from-file
  expiration: 30m
admin:
  email: coach@example.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "mongo", cfg.Storage.Backend)
	assert.Equal(t, "trainers", cfg.Database.Name)
	assert.Equal(t, "s3", cfg.Documents.Backend)
	assert.Equal(t, "protocols", cfg.S3.BucketName)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, "coach@example.com", cfg.Admin.Email)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want error
	}{
		{"missing secret", map[string]string{}, ErrMissingJWTSecret},
		{"unknown storage", map[string]string{"JWT_SECRET": "x", "STORAGE_BACKEND": "redis"}, ErrUnknownStorageBackend},
		{"unknown documents", map[string]string{"JWT_SECRET": "x", "DOCUMENTS_BACKEND": "ftp"}, ErrUnknownDocumentBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(t.TempDir())
			require.ErrorIs(t, err, tt.want)
		})
	}
}
