// internal/repository/mongo/snapshot_repo.go
package mongo

import (
	"alcyxob/trainerscribe/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const snapshotCollectionName = "snapshots"

// snapshotDocument is one stored collection snapshot; the key is the _id.
type snapshotDocument struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// mongoSnapshotRepository implements repository.SnapshotRepository
type mongoSnapshotRepository struct {
	collection *mongo.Collection
}

// NewMongoSnapshotRepository creates a snapshot repository backed by MongoDB.
func NewMongoSnapshotRepository(db *mongo.Database) repository.SnapshotRepository {
	return &mongoSnapshotRepository{
		collection: db.Collection(snapshotCollectionName),
	}
}

// Load retrieves the snapshot stored under key.
func (r *mongoSnapshotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var doc snapshotDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.Data, nil
}

// Save replaces (or inserts) the snapshot stored under key.
func (r *mongoSnapshotRepository) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return errors.New("snapshot key is required")
	}

	doc := snapshotDocument{
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	opts := options.Replace().SetUpsert(true)

	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrSaveFailed, err)
	}
	return nil
}
