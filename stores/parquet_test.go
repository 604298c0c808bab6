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
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	haystack "github.com/apify/apify-haystack"
)

func TestParquetWriterProducesValidFile(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewParquetWriter(&buf, WithParquetBatchSize(2))
	require.NoError(t, err)

	ctx := context.Background()
	score := 0.5
	docs := []haystack.Document{
		{ID: "1", Content: "first", Meta: map[string]interface{}{"url": "a"}},
		{ID: "2", Content: "second"},
		{ID: "3", Content: "third", Score: &score},
	}
	for _, doc := range docs {
		require.NoError(t, writer.Write(ctx, doc))
	}
	require.NoError(t, writer.Close())

	// Parquet files open and close with the PAR1 magic bytes.
	data := buf.Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("PAR1"), data[:4])
	assert.Equal(t, []byte("PAR1"), data[len(data)-4:])
}

func TestParquetWriterRejectedRowLeavesWriterUsable(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewParquetWriter(&buf)
	require.NoError(t, err)

	ctx := context.Background()

	// NaN has no JSON encoding, so this row is rejected.
	bad := haystack.Document{ID: "bad", Content: "x", Meta: map[string]interface{}{"v": math.NaN()}}
	err = writer.Write(ctx, bad)
	var storeErr *ParquetWriterError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "marshal_meta", storeErr.Op)

	// The failed row must not leave the columns at unequal lengths:
	// later writes and the final close still succeed.
	require.NoError(t, writer.Write(ctx, haystack.Document{ID: "good", Content: "y"}))
	require.NoError(t, writer.Close())

	data := buf.Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("PAR1"), data[:4])
	assert.Equal(t, []byte("PAR1"), data[len(data)-4:])
}

func TestParquetWriterEmptyClose(t *testing.T) {
	var buf bytes.Buffer
	writer, err := NewParquetWriter(&buf)
	require.NoError(t, err)
	assert.NoError(t, writer.Close())
}
