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
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	haystack "github.com/apify/apify-haystack"
)

// Mock writer for testing
type mockWriteCloser struct {
	*strings.Builder
	closed    bool
	failWrite bool
	mu        sync.Mutex
}

func (m *mockWriteCloser) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite {
		return 0, io.ErrUnexpectedEOF
	}
	return m.Builder.Write(p)
}

func (m *mockWriteCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockWriteCloser) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Builder.String()
}

func newMockWriteCloser() *mockWriteCloser {
	return &mockWriteCloser{Builder: &strings.Builder{}}
}

func TestJSONWriterBasicFunctionality(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)
	ctx := context.Background()

	score := 0.9
	docs := []haystack.Document{
		{ID: "1", Content: "first", Meta: map[string]interface{}{"url": "a"}},
		{ID: "2", Content: "second", Score: &score},
	}
	for _, doc := range docs {
		require.NoError(t, writer.Write(ctx, doc))
	}
	require.NoError(t, writer.Flush())
	require.NoError(t, writer.Close())
	assert.True(t, mock.closed)

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	require.Len(t, lines, 2)

	var first haystack.Document
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "first", first.Content)
	assert.Equal(t, map[string]interface{}{"url": "a"}, first.Meta)

	var second haystack.Document
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.NotNil(t, second.Score)
	assert.Equal(t, 0.9, *second.Score)
}

func TestJSONWriterWriteFailure(t *testing.T) {
	mock := newMockWriteCloser()
	mock.failWrite = true
	writer := NewJSONWriter(mock)

	err := writer.Write(context.Background(), haystack.Document{ID: "1"})
	assert.Error(t, err)
}

func TestStoreAll(t *testing.T) {
	mock := newMockWriteCloser()
	writer := NewJSONWriter(mock)

	docs := []haystack.Document{
		{ID: "1", Content: "a"},
		{ID: "2", Content: "b"},
		{ID: "3", Content: "c"},
	}
	require.NoError(t, StoreAll(context.Background(), writer, docs))

	lines := strings.Split(strings.TrimSpace(mock.String()), "\n")
	assert.Len(t, lines, 3)
	// Dataset order survives into the store.
	assert.Contains(t, lines[0], `"a"`)
	assert.Contains(t, lines[2], `"c"`)
}
