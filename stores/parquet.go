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
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"

	haystack "github.com/apify/apify-haystack"
)

// ParquetWriterError wraps Parquet-specific write errors with context about
// the operation.
type ParquetWriterError struct {
	Op  string // operation that failed (e.g., "open_writer", "write_batch", "close")
	Err error  // underlying error
}

func (e *ParquetWriterError) Error() string {
	return fmt.Sprintf("parquet writer %s: %v", e.Op, e.Err)
}

func (e *ParquetWriterError) Unwrap() error {
	return e.Err
}

// ParquetWriterOptions configures the Parquet document writer.
type ParquetWriterOptions struct {
	BatchSize   int                  // documents per row group
	Compression compress.Compression // column compression codec
}

// ParquetWriterOption represents a configuration function for ParquetWriterOptions.
type ParquetWriterOption func(*ParquetWriterOptions)

// WithParquetBatchSize sets the number of documents per row group.
func WithParquetBatchSize(batchSize int) ParquetWriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.BatchSize = batchSize
	}
}

// WithParquetCompression sets the column compression codec.
func WithParquetCompression(codec compress.Compression) ParquetWriterOption {
	return func(opts *ParquetWriterOptions) {
		opts.Compression = codec
	}
}

// documentSchema is the fixed Arrow schema for exported documents. Metadata
// is serialized as JSON text since its shape varies per record.
var documentSchema = arrow.NewSchema([]arrow.Field{
	{Name: "id", Type: arrow.BinaryTypes.String},
	{Name: "content", Type: arrow.BinaryTypes.String},
	{Name: "meta", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

// ParquetWriter implements DocumentStore for columnar export of documents.
// Rows are buffered and written one row group per batch.
type ParquetWriter struct {
	writer  *pqarrow.FileWriter
	builder *array.RecordBuilder
	opts    *ParquetWriterOptions
	pending int
	mu      sync.Mutex
}

// NewParquetWriter creates a Parquet document writer over w.
func NewParquetWriter(w io.Writer, options ...ParquetWriterOption) (*ParquetWriter, error) {
	opts := &ParquetWriterOptions{
		BatchSize:   1000,
		Compression: compress.Codecs.Snappy,
	}
	for _, option := range options {
		option(opts)
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(opts.Compression))
	writer, err := pqarrow.NewFileWriter(documentSchema, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, &ParquetWriterError{Op: "open_writer", Err: err}
	}

	return &ParquetWriter{
		writer:  writer,
		builder: array.NewRecordBuilder(memory.DefaultAllocator, documentSchema),
		opts:    opts,
	}, nil
}

// Write implements the DocumentStore interface.
func (p *ParquetWriter) Write(ctx context.Context, doc haystack.Document) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Marshal before touching any builder: a row that fails here must
	// leave all four columns at equal lengths, or the next batch write
	// panics inside the record builder.
	var meta []byte
	if doc.Meta != nil {
		var err error
		if meta, err = json.Marshal(doc.Meta); err != nil {
			return &ParquetWriterError{Op: "marshal_meta", Err: err}
		}
	}

	p.builder.Field(0).(*array.StringBuilder).Append(doc.ID)
	p.builder.Field(1).(*array.StringBuilder).Append(doc.Content)

	metaBuilder := p.builder.Field(2).(*array.StringBuilder)
	if meta == nil {
		metaBuilder.AppendNull()
	} else {
		metaBuilder.Append(string(meta))
	}

	scoreBuilder := p.builder.Field(3).(*array.Float64Builder)
	if doc.Score == nil {
		scoreBuilder.AppendNull()
	} else {
		scoreBuilder.Append(*doc.Score)
	}

	p.pending++
	if p.pending >= p.opts.BatchSize {
		return p.writeBatch()
	}
	return nil
}

// Flush implements the DocumentStore interface.
func (p *ParquetWriter) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeBatch()
}

// Close writes pending rows and finalizes the file footer.
func (p *ParquetWriter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.writeBatch(); err != nil {
		return err
	}
	p.builder.Release()
	if err := p.writer.Close(); err != nil {
		return &ParquetWriterError{Op: "close", Err: err}
	}
	return nil
}

// writeBatch flushes the builder as one row group. Callers must hold the
// mutex.
func (p *ParquetWriter) writeBatch() error {
	if p.pending == 0 {
		return nil
	}

	record := p.builder.NewRecord()
	defer record.Release()

	if err := p.writer.Write(record); err != nil {
		return &ParquetWriterError{Op: "write_batch", Err: err}
	}
	p.pending = 0
	return nil
}
