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

package apifyhaystack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentFromField(t *testing.T) {
	fn := ContentFromField("text", SkipMissing)

	doc, err := fn(Record{"text": "hello", "url": "a"})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "hello", doc.Content)
	assert.Equal(t, map[string]interface{}{"url": "a"}, doc.Meta)
	assert.NotEmpty(t, doc.ID)
}

func TestContentFromFieldFormatsNonStrings(t *testing.T) {
	fn := ContentFromField("value", SkipMissing)

	doc, err := fn(Record{"value": 42})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "42", doc.Content)
}

func TestContentFromFieldMissingPolicies(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{name: "field absent", record: Record{"url": "a"}},
		{name: "field nil", record: Record{"text": nil, "url": "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ContentFromField("text", SkipMissing)(tt.record)
			require.NoError(t, err)
			assert.Nil(t, doc)

			doc, err = ContentFromField("text", EmptyOnMissing)(tt.record)
			require.NoError(t, err)
			require.NotNil(t, doc)
			assert.Equal(t, "", doc.Content)
			assert.Equal(t, map[string]interface{}{"url": "a"}, doc.Meta)

			doc, err = ContentFromField("text", FailOnMissing)(tt.record)
			assert.Nil(t, doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), `"text"`)
		})
	}
}

func TestContentFieldFallbackThroughLoader(t *testing.T) {
	client := succeededClient([]Record{
		{"text": "first", "url": "a"},
		{"url": "b"},
	})

	loader, err := NewDatasetLoader(client,
		WithDatasetID("ds-1"),
		WithContentField("text", SkipMissing),
	)
	require.NoError(t, err)

	result, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "first", result.Documents[0].Content)
	assert.Equal(t, 2, result.ItemCount)
}

func TestContentFieldFailPolicyAbortsLoad(t *testing.T) {
	client := succeededClient([]Record{{"url": "b"}})

	loader, err := NewDatasetLoader(client,
		WithDatasetID("ds-1"),
		WithContentField("text", FailOnMissing),
	)
	require.NoError(t, err)

	_, err = loader.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"text"`)
}
