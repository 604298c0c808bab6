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

// Package stores provides destinations for loaded documents: JSON Lines,
// Parquet, PostgreSQL, MongoDB, and S3.
package stores

import (
	"context"

	haystack "github.com/apify/apify-haystack"
)

// DocumentStore defines the interface for persisting documents.
type DocumentStore interface {
	// Write outputs a single document to the store.
	Write(ctx context.Context, doc haystack.Document) error
	// Flush ensures all buffered documents are written out.
	Flush() error
	// Close flushes and releases any resources held by the store.
	Close() error
}

// StoreAll writes every document of a load result to the store and flushes.
// The store is left open for further writes.
func StoreAll(ctx context.Context, store DocumentStore, docs []haystack.Document) error {
	for _, doc := range docs {
		if err := store.Write(ctx, doc); err != nil {
			return err
		}
	}
	return store.Flush()
}
