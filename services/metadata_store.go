package services

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"genai-rag-backend/internal/logger"
	"genai-rag-backend/models"
)

// MetadataStore is the append-only audit sink for PDF-upload events. It
// lives in the document store, independent of the graph, and must
// tolerate being unavailable without blocking ingestion.
type MetadataStore interface {
	StoreMetadata(ctx context.Context, record models.UploadMetadata) error
	Close(ctx context.Context) error
}

// MongoMetadata stores one record per upload event in a flat collection.
// A nil collection (connection failed at startup) makes the store inert.
type MongoMetadata struct {
	client     *mongo.Client
	collection *mongo.Collection
	closeOnce  sync.Once
}

// NewMongoMetadata wraps an already-connected client. Pass a nil client
// to get an inert store.
func NewMongoMetadata(client *mongo.Client, dbName, collectionName string) *MongoMetadata {
	m := &MongoMetadata{client: client}
	if client != nil {
		m.collection = client.Database(dbName).Collection(collectionName)
	}
	return m
}

// StoreMetadata inserts one audit record. Failures are logged and
// swallowed: ingestion must not fail solely because the audit sink is
// down.
func (m *MongoMetadata) StoreMetadata(ctx context.Context, record models.UploadMetadata) error {
	if m.collection == nil {
		logger.Warn("MongoDB not initialized, skipping metadata storage", "pdf", record.PDFName)
		return nil
	}

	if _, err := m.collection.InsertOne(ctx, record); err != nil {
		logger.Error("Failed to store upload metadata", "project", record.Project, "pdf", record.PDFName, "error", err)
		return nil
	}

	logger.Info("Stored upload metadata", "project", record.Project, "pdf", record.PDFName)
	return nil
}

// Close disconnects the client. Idempotent and safe on an inert store.
func (m *MongoMetadata) Close(ctx context.Context) error {
	var err error
	m.closeOnce.Do(func() {
		if m.client != nil {
			err = m.client.Disconnect(ctx)
			logger.Info("MongoDB connection closed")
		}
	})
	return err
}
