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
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	haystack "github.com/apify/apify-haystack"
)

func TestFileDatasetReader(t *testing.T) {
	input := strings.Join([]string{
		`{"url":"a","text":"first"}`,
		``,
		`{"url":"b","text":"second"}`,
	}, "\n")

	reader := NewFileDatasetReader(io.NopCloser(strings.NewReader(input)))
	defer reader.Close()

	ctx := context.Background()

	record, err := reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, haystack.Record{"url": "a", "text": "first"}, record)

	record, err = reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, haystack.Record{"url": "b", "text": "second"}, record)

	_, err = reader.Read(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestFileDatasetReaderMalformedLine(t *testing.T) {
	reader := NewFileDatasetReader(io.NopCloser(strings.NewReader("not json\n")))
	defer reader.Close()

	_, err := reader.Read(context.Background())
	assert.Error(t, err)
}

func TestFileDatasetReaderThroughLoader(t *testing.T) {
	// A downloaded dataset replayed through the loader without a platform
	// client behind it.
	input := `{"url":"a","text":"offline"}` + "\n"
	client := &fileOnlyClient{reader: NewFileDatasetReader(io.NopCloser(strings.NewReader(input)))}

	loader, err := haystack.NewDatasetLoader(client,
		haystack.WithDatasetID("local"),
		haystack.WithContentField("text", haystack.SkipMissing),
	)
	require.NoError(t, err)

	result, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "offline", result.Documents[0].Content)
}

// fileOnlyClient serves a fixed reader and rejects run operations.
type fileOnlyClient struct {
	reader haystack.DatasetReader
}

func (f *fileOnlyClient) StartRun(context.Context, haystack.RunLocator, haystack.Record) (string, error) {
	return "", io.ErrUnexpectedEOF
}

func (f *fileOnlyClient) WaitForRun(context.Context, string, time.Duration) (*haystack.RunInfo, error) {
	return nil, io.ErrUnexpectedEOF
}

func (f *fileOnlyClient) RunDatasetID(context.Context, string) (string, error) {
	return "", io.ErrUnexpectedEOF
}

func (f *fileOnlyClient) DatasetItems(string) haystack.DatasetReader {
	return f.reader
}
