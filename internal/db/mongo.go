package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo wraps the client and the application database. Construct it once in
// main and hand the Database to each component.
type Mongo struct {
	client   *mongo.Client
	Database *mongo.Database
}

// Connect establishes a connection to the MongoDB server, pings it, and
// creates the indexes the application relies on.
func Connect(uri, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	m := &Mongo{client: client, Database: client.Database(dbName)}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	// Every user has a unique email; it is also the login lookup key.
	emailIndex := mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.Database.Collection("users").Indexes().CreateOne(ctx, emailIndex); err != nil {
		return fmt.Errorf("error creating email index: %w", err)
	}

	// The active-quest cap and the active/completed listings both filter on
	// (userId, status).
	userStatusIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "status", Value: 1},
		},
	}
	if _, err := m.Database.Collection("assigned_quests").Indexes().CreateOne(ctx, userStatusIndex); err != nil {
		return fmt.Errorf("error creating userId/status index: %w", err)
	}

	statusIndex := mongo.IndexModel{
		Keys: bson.M{"status": 1},
	}
	if _, err := m.Database.Collection("quests").Indexes().CreateOne(ctx, statusIndex); err != nil {
		return fmt.Errorf("error creating quest status index: %w", err)
	}

	createdByIndex := mongo.IndexModel{
		Keys: bson.M{"createdBy": 1},
	}
	if _, err := m.Database.Collection("sustainable_actions").Indexes().CreateOne(ctx, createdByIndex); err != nil {
		return fmt.Errorf("error creating createdBy index: %w", err)
	}

	return nil
}

// Disconnect closes the connection to the MongoDB server.
func (m *Mongo) Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error disconnecting from MongoDB: %w", err)
	}
	return nil
}
