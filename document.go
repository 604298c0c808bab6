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

import "github.com/google/uuid"

// Document is the output type produced by a mapping function.
// It mirrors the document model of retrieval frameworks: textual content
// plus free-form metadata and an optional relevance score.
type Document struct {
	ID      string                 `json:"id"`
	Content string                 `json:"content"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
	Score   *float64               `json:"score,omitempty"`
}

// NewDocument creates a Document with a generated UUID.
// meta may be nil.
func NewDocument(content string, meta map[string]interface{}) *Document {
	return &Document{
		ID:      uuid.NewString(),
		Content: content,
		Meta:    meta,
	}
}
