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

// Package apifyhaystack exposes Apify Actor runs and datasets as documents
// for retrieval and LLM applications.
//
// Core Concepts:
//   - Record: one item of an Apify dataset, a map of field names to values.
//   - Document: the application-level output type (content plus metadata).
//   - MappingFunc: caller-supplied transform from Record to Document.
//   - RunClient: abstraction over the Apify platform (start a run, wait for
//     it, read its dataset). The apify subpackage provides the REST
//     implementation; tests substitute fakes.
//   - DatasetLoader: starts a run (or takes an existing dataset), drains all
//     dataset items in order, and maps each one into a Document.
package apifyhaystack

import (
	"context"
	"time"
)

// Record represents a single item of an Apify dataset.
// Each record is a map from field names to values, supporting heterogeneous data.
// The loader treats records as immutable and never modifies them.
type Record map[string]interface{}

// MappingFunc converts one dataset record into a Document.
// Returning (nil, nil) skips the record; it is a filter result, not an error.
// Any error returned aborts the load and reaches the caller unmodified.
type MappingFunc func(record Record) (*Document, error)

// DatasetReader streams the items of one dataset in the platform's order.
// Implementations hide pagination behind Read.
type DatasetReader interface {
	// Read returns the next record or io.EOF when no more records are available.
	Read(ctx context.Context) (Record, error)
	// Close releases any resources held by the reader.
	Close() error
}

// RunClient defines the operations the loader needs from the Apify platform.
// Credentials are the client's concern; the loader passes nothing through.
type RunClient interface {
	// StartRun starts an Actor or Task run and returns its run ID.
	StartRun(ctx context.Context, locator RunLocator, input Record) (string, error)
	// WaitForRun blocks until the run reaches a terminal status or the
	// timeout elapses, and returns the last observed run info either way.
	// It never cancels the remote run.
	WaitForRun(ctx context.Context, runID string, timeout time.Duration) (*RunInfo, error)
	// RunDatasetID resolves the default dataset produced by a run.
	RunDatasetID(ctx context.Context, runID string) (string, error)
	// DatasetItems returns a reader over all items of a dataset.
	DatasetItems(datasetID string) DatasetReader
}
