package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB connects to the metadata document store and prepares
// the upload-audit collection indexes. Callers treat a connection error
// as non-fatal: the metadata store becomes inert rather than blocking
// ingestion.
func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	if err := createMetadataIndexes(client, cfg); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

func createMetadataIndexes(client *mongo.Client, cfg *Config) error {
	collection := client.Database(cfg.MongoDB).Collection(cfg.MongoCollection)

	// Lookup paths for the append-only audit records: by project and by
	// (project, pdf). No unique index: every upload event is its own record.
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "project", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "project", Value: 1}, {Key: "pdf_name", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "upload_time", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(context.Background(), indexes)
	return err
}
