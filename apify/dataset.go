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

package apify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	haystack "github.com/apify/apify-haystack"
)

// DatasetItems returns a reader over all items of a dataset, in the
// platform's storage order. Pages are fetched lazily as Read advances.
func (c *Client) DatasetItems(datasetID string) haystack.DatasetReader {
	return &datasetReader{client: c, datasetID: datasetID}
}

// datasetReader pages through GET /datasets/{id}/items. Items are always
// requested with clean=true, which strips hidden fields and empty items the
// same way the platform's own clients do.
type datasetReader struct {
	client    *Client
	datasetID string
	items     []haystack.Record
	index     int
	offset    int
	drained   bool
}

// Read returns the next dataset item or io.EOF after the final page.
func (r *datasetReader) Read(ctx context.Context) (haystack.Record, error) {
	if r.index >= len(r.items) {
		if r.drained {
			return nil, io.EOF
		}
		if err := r.loadNextPage(ctx); err != nil {
			return nil, err
		}
		if len(r.items) == 0 {
			return nil, io.EOF
		}
	}

	record := r.items[r.index]
	r.index++
	atomic.AddInt64(&r.client.stats.RecordsRead, 1)
	return record, nil
}

// Close implements haystack.DatasetReader. The reader holds no resources
// between pages.
func (r *datasetReader) Close() error {
	return nil
}

// loadNextPage fetches one page of items and advances the offset.
// A short page marks the dataset as drained.
func (r *datasetReader) loadNextPage(ctx context.Context) error {
	pageSize := r.client.opts.PageSize

	query := url.Values{}
	query.Set("clean", "true")
	query.Set("format", "json")
	query.Set("offset", fmt.Sprintf("%d", r.offset))
	query.Set("limit", fmt.Sprintf("%d", pageSize))

	path := fmt.Sprintf("%s/datasets/%s/items?%s",
		r.client.opts.BaseURL, url.PathEscape(r.datasetID), query.Encode())

	var items []haystack.Record
	if err := r.client.doJSON(ctx, "list_items", http.MethodGet, path, nil, &items); err != nil {
		return err
	}

	r.items = items
	r.index = 0
	r.offset += len(items)
	if len(items) < pageSize {
		r.drained = true
	}
	return nil
}
