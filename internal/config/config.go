package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Documents DocumentsConfig `mapstructure:"documents"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects where customer and protocol snapshots live.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // file | sqlite | mongo
	Dir     string `mapstructure:"dir"`     // used by the file backend
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// DocumentsConfig selects where exported PDFs are archived.
type DocumentsConfig struct {
	Backend   string        `mapstructure:"backend"` // local | s3
	Dir       string        `mapstructure:"dir"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// AdminConfig is the single back-office account.
type AdminConfig struct {
	Email        string `mapstructure:"email"`
	PasswordHash string `mapstructure:"password_hash"` // bcrypt
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

var (
	ErrUnknownStorageBackend  = errors.New("unknown storage backend")
	ErrUnknownDocumentBackend = errors.New("unknown documents backend")
	ErrMissingJWTSecret       = errors.New("jwt.secret must be set")
)

// LoadConfig reads configuration from path/config.yaml and the environment.
// Nested keys map to env vars with dots replaced, e.g. storage.backend ->
// STORAGE_BACKEND.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config.LoadConfig: read: %w", err)
		}
		// No file: defaults and env vars only.
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("config.LoadConfig: unmarshal: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "trainerscribe")
	v.SetDefault("sqlite.path", "./data/trainerscribe.db")
	v.SetDefault("documents.backend", "local")
	v.SetDefault("documents.dir", "./data/documents")
	v.SetDefault("documents.url_expiry", "15m")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("admin.email", "admin@trainerscribe.local")
	v.SetDefault("admin.password_hash", "")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "mongo":
	default:
		return fmt.Errorf("config: %w %q", ErrUnknownStorageBackend, c.Storage.Backend)
	}
	switch c.Documents.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("config: %w %q", ErrUnknownDocumentBackend, c.Documents.Backend)
	}
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
