//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of apify-haystack.
//
// apify-haystack is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// apify-haystack is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with apify-haystack. If not, see https://www.gnu.org/licenses/.

package stores

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	haystack "github.com/apify/apify-haystack"
)

// MongoStoreError provides structured error information for MongoDB store
// operations.
type MongoStoreError struct {
	Op  string // operation that failed (e.g., "connect", "write", "flush")
	Err error  // underlying error
}

func (e *MongoStoreError) Error() string {
	return fmt.Sprintf("mongo store %s: %v", e.Op, e.Err)
}

func (e *MongoStoreError) Unwrap() error {
	return e.Err
}

// MongoStoreStats holds MongoDB write performance statistics.
type MongoStoreStats struct {
	DocumentsWritten int64         // total documents inserted
	BatchesWritten   int64         // number of InsertMany calls
	LastWriteTime    time.Time     // time of last write
	WriteDuration    time.Duration // total time spent writing
}

// MongoStoreOptions configures the MongoDB document store.
type MongoStoreOptions struct {
	URI            string        // MongoDB connection URI
	Database       string        // database name
	Collection     string        // collection name
	BatchSize      int           // documents per InsertMany batch
	ConnectTimeout time.Duration // timeout for establishing the connection
	WriteTimeout   time.Duration // timeout for insert operations
}

// MongoStoreOption represents a configuration function for MongoStoreOptions.
type MongoStoreOption func(*MongoStoreOptions)

// WithMongoURI sets the MongoDB connection URI.
func WithMongoURI(uri string) MongoStoreOption {
	return func(opts *MongoStoreOptions) {
		opts.URI = uri
	}
}

// WithMongoDatabase sets the target database name.
func WithMongoDatabase(database string) MongoStoreOption {
	return func(opts *MongoStoreOptions) {
		opts.Database = database
	}
}

// WithMongoCollection sets the target collection name.
func WithMongoCollection(collection string) MongoStoreOption {
	return func(opts *MongoStoreOptions) {
		opts.Collection = collection
	}
}

// WithMongoBatchSize sets the number of documents per InsertMany batch.
func WithMongoBatchSize(batchSize int) MongoStoreOption {
	return func(opts *MongoStoreOptions) {
		opts.BatchSize = batchSize
	}
}

// WithMongoTimeouts sets the connect and write timeouts.
func WithMongoTimeouts(connect, write time.Duration) MongoStoreOption {
	return func(opts *MongoStoreOptions) {
		opts.ConnectTimeout = connect
		opts.WriteTimeout = write
	}
}

// withDefaults fills unset options with defaults.
func (o *MongoStoreOptions) withDefaults() *MongoStoreOptions {
	if o.Collection == "" {
		o.Collection = "documents"
	}
	if o.BatchSize == 0 {
		o.BatchSize = 500
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 30 * time.Second
	}
	return o
}

// MongoStore implements DocumentStore on a MongoDB collection. The document
// ID becomes the MongoDB _id, so re-storing the same documents upserts
// nothing and fails on duplicates, matching PostgreSQL's ConflictError
// default.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	opts       *MongoStoreOptions
	batch      []interface{}
	stats      MongoStoreStats
	mu         sync.Mutex
}

// NewMongoStore connects to MongoDB and prepares the target collection.
func NewMongoStore(ctx context.Context, storeOptions ...MongoStoreOption) (*MongoStore, error) {
	opts := (&MongoStoreOptions{}).withDefaults()
	for _, option := range storeOptions {
		option(opts)
	}

	if opts.URI == "" {
		return nil, &MongoStoreError{Op: "config", Err: fmt.Errorf("uri is required")}
	}
	if opts.Database == "" {
		return nil, &MongoStoreError{Op: "config", Err: fmt.Errorf("database is required")}
	}

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, &MongoStoreError{Op: "connect", Err: err}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &MongoStoreError{Op: "connect", Err: err}
	}

	return &MongoStore{
		client:     client,
		collection: client.Database(opts.Database).Collection(opts.Collection),
		opts:       opts,
		batch:      make([]interface{}, 0, opts.BatchSize),
	}, nil
}

// Write implements the DocumentStore interface. Documents are buffered and
// inserted once a full batch accumulates.
func (m *MongoStore) Write(ctx context.Context, doc haystack.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batch = append(m.batch, bson.M{
		"_id":     doc.ID,
		"content": doc.Content,
		"meta":    doc.Meta,
		"score":   doc.Score,
	})
	if len(m.batch) >= m.opts.BatchSize {
		return m.flushBatch(ctx)
	}
	return nil
}

// Flush implements the DocumentStore interface.
func (m *MongoStore) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushBatch(context.Background())
}

// Close flushes pending documents and disconnects.
func (m *MongoStore) Close() error {
	m.mu.Lock()
	flushErr := m.flushBatch(context.Background())
	m.mu.Unlock()

	if err := m.client.Disconnect(context.Background()); err != nil {
		return &MongoStoreError{Op: "close", Err: err}
	}
	return flushErr
}

// Stats returns write performance statistics.
func (m *MongoStore) Stats() MongoStoreStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// flushBatch inserts the buffered documents. Callers must hold the mutex.
func (m *MongoStore) flushBatch(ctx context.Context) error {
	if len(m.batch) == 0 {
		return nil
	}
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, m.opts.WriteTimeout)
	defer cancel()

	// Ordered inserts keep dataset order inside the collection's insertion
	// order, matching the loader's ordering guarantee.
	if _, err := m.collection.InsertMany(ctx, m.batch, options.InsertMany().SetOrdered(true)); err != nil {
		return &MongoStoreError{Op: "write", Err: err}
	}

	m.stats.DocumentsWritten += int64(len(m.batch))
	m.stats.BatchesWritten++
	m.stats.LastWriteTime = time.Now()
	m.stats.WriteDuration += time.Since(start)
	m.batch = m.batch[:0]
	return nil
}
