package storage

import (
	"context"
	"errors"
	"path"
	"time"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

const ContentTypePDF = "application/pdf"

var (
	ErrObjectNotFound   = errors.New("object not found in storage")
	ErrInvalidObjectKey = errors.New("invalid object key")
)

// DocumentStorage archives rendered documents and hands out links to them.
type DocumentStorage interface {
	// Put stores data under objectKey, replacing any previous object.
	Put(ctx context.Context, objectKey string, contentType string, data []byte) error

	// PresignedDownloadURL returns a URL that allows reading the object until it expires.
	PresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// ListObjects returns the keys of the objects stored below prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)

	// DeleteObject removes an object. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, objectKey string) error
}

// ProtocolObjectPrefix is the key prefix shared by every archived document of
// a protocol.
func ProtocolObjectPrefix(protocolID string) string {
	return path.Join("protocols", protocolID) + "/"
}

// ProtocolObjectKey is the archive key of an exported protocol document.
func ProtocolObjectKey(protocolID, fileName string) string {
	return path.Join("protocols", protocolID, fileName)
}
