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

import "fmt"

// MissingFieldPolicy decides what the content-field fallback mapping does
// when a record has no value at the configured field.
type MissingFieldPolicy int

const (
	// SkipMissing skips records without the field, like a nil mapping result.
	SkipMissing MissingFieldPolicy = iota
	// EmptyOnMissing produces a document with empty content.
	EmptyOnMissing
	// FailOnMissing aborts the load with an error.
	FailOnMissing
)

// ContentFromField returns the fallback mapping used when no mapping
// function is configured: the record's value at field becomes the document
// content, and the whole record becomes the document metadata. Non-string
// values are formatted with fmt.Sprintf; nil counts as missing.
func ContentFromField(field string, policy MissingFieldPolicy) MappingFunc {
	return func(record Record) (*Document, error) {
		value, exists := record[field]
		if !exists || value == nil {
			switch policy {
			case EmptyOnMissing:
				return NewDocument("", meta(record, field)), nil
			case FailOnMissing:
				return nil, fmt.Errorf("record has no %q field", field)
			default:
				return nil, nil
			}
		}

		content, ok := value.(string)
		if !ok {
			content = fmt.Sprintf("%v", value)
		}
		return NewDocument(content, meta(record, field)), nil
	}
}

// meta copies every field of the record except the content field itself.
func meta(record Record, contentField string) map[string]interface{} {
	m := make(map[string]interface{}, len(record))
	for k, v := range record {
		if k == contentField {
			continue
		}
		m[k] = v
	}
	return m
}
