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
	"bufio"
	"context"
	"encoding/json"
	"io"

	haystack "github.com/apify/apify-haystack"
)

// FileDatasetReader reads a dataset downloaded in JSON Lines form, one item
// per line. It implements haystack.DatasetReader, so offline copies of a
// crawl can be replayed through the loader without touching the platform.
type FileDatasetReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// NewFileDatasetReader creates a reader over line-delimited JSON items.
func NewFileDatasetReader(r io.ReadCloser) *FileDatasetReader {
	return &FileDatasetReader{
		scanner: bufio.NewScanner(r),
		closer:  r,
	}
}

// Read returns the next item or io.EOF at end of input. Blank lines are
// skipped.
func (f *FileDatasetReader) Read(ctx context.Context) (haystack.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	for f.scanner.Scan() {
		line := f.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record haystack.Record
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, err
		}
		return record, nil
	}

	if err := f.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close closes the underlying input.
func (f *FileDatasetReader) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
