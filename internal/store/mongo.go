package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tribithub/portal/backend/internal/models"
)

// NewMongoDatabase connects, pings and returns the named database.
func NewMongoDatabase(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(name), nil
}

// MongoStore records outgoing email attempts.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("email_deliveries")}
}

func (s *MongoStore) Insert(ctx context.Context, d *models.Delivery) error {
	if d.SentAt.IsZero() {
		d.SentAt = time.Now()
	}
	if _, err := s.col.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// ListRecent returns up to limit deliveries, newest first.
func (s *MongoStore) ListRecent(ctx context.Context, limit int64) ([]models.Delivery, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}}).SetLimit(limit)
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	docs := []models.Delivery{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
