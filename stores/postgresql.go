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
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	haystack "github.com/apify/apify-haystack"
	_ "github.com/lib/pq"
)

// PostgresStoreError wraps PostgreSQL-specific write errors with context
// about the operation.
type PostgresStoreError struct {
	Op  string // the operation being performed (e.g., "write", "connect")
	Err error  // the underlying error
}

// Error returns the error string for PostgresStoreError.
func (e *PostgresStoreError) Error() string {
	return fmt.Sprintf("postgres store %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for PostgresStoreError.
func (e *PostgresStoreError) Unwrap() error {
	return e.Err
}

// PostgresStoreStats holds PostgreSQL write performance statistics.
type PostgresStoreStats struct {
	DocumentsWritten int64         // total documents written
	BatchesWritten   int64         // number of batches written
	LastWriteTime    time.Time     // time of last write
	WriteDuration    time.Duration // total time spent writing
}

// ConflictResolution defines how to handle INSERT conflicts on document IDs.
type ConflictResolution int

const (
	// ConflictError returns an error on conflict (default PostgreSQL behavior).
	ConflictError ConflictResolution = iota
	// ConflictIgnore ignores conflicting documents (ON CONFLICT DO NOTHING).
	ConflictIgnore
	// ConflictUpdate overwrites conflicting documents (ON CONFLICT DO UPDATE).
	ConflictUpdate
)

// PostgresStoreOptions configures the PostgreSQL document store.
type PostgresStoreOptions struct {
	DSN             string             // PostgreSQL connection string
	Table           string             // target table name
	BatchSize       int                // documents per INSERT batch
	CreateTable     bool               // create the documents table if missing
	Conflict        ConflictResolution // conflict handling strategy
	QueryTimeout    time.Duration      // timeout for statements
	ConnMaxLifetime time.Duration      // max connection lifetime
	ConnMaxIdleTime time.Duration      // max idle connection time
	MaxOpenConns    int                // max open connections
	MaxIdleConns    int                // max idle connections
}

// PostgresStoreOption represents a configuration function for PostgresStoreOptions.
type PostgresStoreOption func(*PostgresStoreOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresStoreOption {
	return func(opts *PostgresStoreOptions) {
		opts.DSN = dsn
	}
}

// WithPostgresTable sets the target table name.
func WithPostgresTable(table string) PostgresStoreOption {
	return func(opts *PostgresStoreOptions) {
		opts.Table = table
	}
}

// WithPostgresBatchSize sets the number of documents per INSERT batch.
func WithPostgresBatchSize(batchSize int) PostgresStoreOption {
	return func(opts *PostgresStoreOptions) {
		opts.BatchSize = batchSize
	}
}

// WithPostgresCreateTable creates the documents table if it does not exist.
func WithPostgresCreateTable() PostgresStoreOption {
	return func(opts *PostgresStoreOptions) {
		opts.CreateTable = true
	}
}

// WithPostgresConflict sets the conflict handling strategy.
func WithPostgresConflict(resolution ConflictResolution) PostgresStoreOption {
	return func(opts *PostgresStoreOptions) {
		opts.Conflict = resolution
	}
}

// WithPostgresQueryTimeout sets the statement timeout.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresStoreOption {
	return func(opts *PostgresStoreOptions) {
		opts.QueryTimeout = timeout
	}
}

// withDefaults fills unset options with defaults.
func (o *PostgresStoreOptions) withDefaults() *PostgresStoreOptions {
	if o.Table == "" {
		o.Table = "documents"
	}
	if o.BatchSize == 0 {
		o.BatchSize = 500
	}
	if o.QueryTimeout == 0 {
		o.QueryTimeout = 30 * time.Second
	}
	if o.ConnMaxLifetime == 0 {
		o.ConnMaxLifetime = 5 * time.Minute
	}
	if o.ConnMaxIdleTime == 0 {
		o.ConnMaxIdleTime = time.Minute
	}
	if o.MaxOpenConns == 0 {
		o.MaxOpenConns = 10
	}
	if o.MaxIdleConns == 0 {
		o.MaxIdleConns = 5
	}
	return o
}

// PostgresStore implements DocumentStore on a PostgreSQL table with the
// fixed shape (id TEXT PRIMARY KEY, content TEXT, meta JSONB, score DOUBLE
// PRECISION). Writes are buffered and flushed in batches.
type PostgresStore struct {
	db    *sql.DB
	opts  *PostgresStoreOptions
	batch []haystack.Document
	stats PostgresStoreStats
	mu    sync.Mutex
}

// NewPostgresStore connects to PostgreSQL and prepares the documents table.
func NewPostgresStore(ctx context.Context, options ...PostgresStoreOption) (*PostgresStore, error) {
	opts := (&PostgresStoreOptions{}).withDefaults()
	for _, option := range options {
		option(opts)
	}

	if opts.DSN == "" {
		return nil, &PostgresStoreError{Op: "config", Err: fmt.Errorf("dsn is required")}
	}

	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresStoreError{Op: "connect", Err: err}
	}
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &PostgresStoreError{Op: "connect", Err: err}
	}

	store := &PostgresStore{
		db:    db,
		opts:  opts,
		batch: make([]haystack.Document, 0, opts.BatchSize),
	}

	if opts.CreateTable {
		if err := store.createTable(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return store, nil
}

// Write implements the DocumentStore interface. Documents are buffered and
// written once a full batch accumulates.
func (p *PostgresStore) Write(ctx context.Context, doc haystack.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A batch retained by a failed flush caps the buffer: it has to drain
	// before new documents are accepted, so a persistent database error
	// cannot grow the buffer without bound.
	if len(p.batch) >= p.opts.BatchSize {
		if err := p.flushBatch(ctx); err != nil {
			return err
		}
	}

	p.batch = append(p.batch, doc)
	if len(p.batch) >= p.opts.BatchSize {
		return p.flushBatch(ctx)
	}
	return nil
}

// Flush implements the DocumentStore interface.
func (p *PostgresStore) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushBatch(context.Background())
}

// Close flushes pending documents and closes the connection pool.
func (p *PostgresStore) Close() error {
	p.mu.Lock()
	flushErr := p.flushBatch(context.Background())
	p.mu.Unlock()

	if err := p.db.Close(); err != nil {
		return &PostgresStoreError{Op: "close", Err: err}
	}
	return flushErr
}

// Stats returns write performance statistics.
func (p *PostgresStore) Stats() PostgresStoreStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// createTable creates the documents table if it does not exist.
func (p *PostgresStore) createTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		meta JSONB,
		score DOUBLE PRECISION
	)`, p.opts.Table)

	ctx, cancel := context.WithTimeout(ctx, p.opts.QueryTimeout)
	defer cancel()

	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return &PostgresStoreError{Op: "create_table", Err: err}
	}
	return nil
}

// flushBatch writes the buffered documents in one multi-row INSERT.
// Callers must hold the mutex.
func (p *PostgresStore) flushBatch(ctx context.Context) error {
	if len(p.batch) == 0 {
		return nil
	}
	start := time.Now()

	placeholders := make([]string, 0, len(p.batch))
	args := make([]interface{}, 0, len(p.batch)*4)
	for i, doc := range p.batch {
		placeholders = append(placeholders,
			fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))

		meta, err := json.Marshal(doc.Meta)
		if err != nil {
			return &PostgresStoreError{Op: "marshal_meta", Err: err}
		}
		args = append(args, doc.ID, doc.Content, meta, doc.Score)
	}

	query := fmt.Sprintf("INSERT INTO %s (id, content, meta, score) VALUES %s",
		p.opts.Table, strings.Join(placeholders, ", "))
	switch p.opts.Conflict {
	case ConflictIgnore:
		query += " ON CONFLICT (id) DO NOTHING"
	case ConflictUpdate:
		query += " ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, meta = EXCLUDED.meta, score = EXCLUDED.score"
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.QueryTimeout)
	defer cancel()

	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return &PostgresStoreError{Op: "write", Err: err}
	}

	p.stats.DocumentsWritten += int64(len(p.batch))
	p.stats.BatchesWritten++
	p.stats.LastWriteTime = time.Now()
	p.stats.WriteDuration += time.Since(start)
	p.batch = p.batch[:0]
	return nil
}
