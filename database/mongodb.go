package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Hans-Matrimony/hans-ai-whatsapp/config"
	"github.com/Hans-Matrimony/hans-ai-whatsapp/models"
)

// Store is the Mongo-backed message log. The bridge runs without it when
// no DATABASE_URL is configured.
type Store struct {
	client   *mongo.Client
	messages *mongo.Collection
}

// Connect establishes the MongoDB connection and prepares indexes
func Connect(cfg *config.Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.Database.URI).
		SetMaxPoolSize(uint64(cfg.Database.MaxConnections)).
		SetMinPoolSize(uint64(cfg.Database.MinConnections)).
		SetMaxConnIdleTime(cfg.Database.MaxIdleTime)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &Store{
		client:   client,
		messages: client.Database(cfg.Database.Name).Collection("messages"),
	}

	if err := store.createIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Printf("Connected to MongoDB database: %s", cfg.Database.Name)
	return store, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "from", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "message_id", Value: 1}},
		},
	}

	if _, err := s.messages.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	return nil
}

// Record inserts one relay record
func (s *Store) Record(ctx context.Context, entry models.MessageLog) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	if _, err := s.messages.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert message log: %w", err)
	}

	return nil
}

// Recent returns the most recent relay records, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]models.MessageLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.messages.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query message log: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.MessageLog{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode message log: %w", err)
	}

	return entries, nil
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Disconnect closes the MongoDB connection
func (s *Store) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
