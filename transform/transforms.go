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

// Package transform provides reusable, composable building blocks for
// mapping functions.
//
// All constructors return a haystack.MappingFunc (or a Predicate to combine
// with SkipIf). Skipping is always expressed as a nil document, never as an
// error, so intentionally filtered records stay distinct from failures.
package transform

import (
	"fmt"
	"reflect"
	"strings"

	haystack "github.com/apify/apify-haystack"
)

// TextContent maps the record's string value at field to the document
// content, with the remaining fields as metadata. Records where the field is
// missing, nil, or empty are skipped.
func TextContent(field string) haystack.MappingFunc {
	return func(record haystack.Record) (*haystack.Document, error) {
		value, exists := record[field]
		if !exists || value == nil {
			return nil, nil
		}
		content, ok := value.(string)
		if !ok {
			content = fmt.Sprintf("%v", value)
		}
		if content == "" {
			return nil, nil
		}

		meta := make(map[string]interface{}, len(record))
		for k, v := range record {
			if k == field {
				continue
			}
			meta[k] = v
		}
		return haystack.NewDocument(content, meta), nil
	}
}

// WithMeta wraps a mapping function, restricting document metadata to the
// named record fields. Skips and errors from fn pass through untouched.
func WithMeta(fn haystack.MappingFunc, fields ...string) haystack.MappingFunc {
	return func(record haystack.Record) (*haystack.Document, error) {
		doc, err := fn(record)
		if err != nil || doc == nil {
			return doc, err
		}

		meta := make(map[string]interface{}, len(fields))
		for _, field := range fields {
			if value, exists := record[field]; exists {
				meta[field] = value
			}
		}
		doc.Meta = meta
		return doc, nil
	}
}

// Predicate decides whether a record should be skipped or kept.
type Predicate func(record haystack.Record) bool

// SkipIf wraps a mapping function, skipping records the predicate matches
// before fn ever sees them.
func SkipIf(fn haystack.MappingFunc, pred Predicate) haystack.MappingFunc {
	return func(record haystack.Record) (*haystack.Document, error) {
		if pred(record) {
			return nil, nil
		}
		return fn(record)
	}
}

// KeepIf is the complement of SkipIf.
func KeepIf(fn haystack.MappingFunc, pred Predicate) haystack.MappingFunc {
	return SkipIf(fn, func(record haystack.Record) bool { return !pred(record) })
}

// NotNull matches records where the field exists and is neither nil nor an
// empty string.
func NotNull(field string) Predicate {
	return func(record haystack.Record) bool {
		value, exists := record[field]
		if !exists || value == nil {
			return false
		}
		if str, ok := value.(string); ok && str == "" {
			return false
		}
		return true
	}
}

// Equals matches records where the field equals the expected value.
func Equals(field string, expected interface{}) Predicate {
	return func(record haystack.Record) bool {
		value, exists := record[field]
		if !exists {
			return false
		}
		return reflect.DeepEqual(value, expected)
	}
}

// Contains matches records where the string field contains the substring.
func Contains(field, substring string) Predicate {
	return func(record haystack.Record) bool {
		if str, ok := record[field].(string); ok {
			return strings.Contains(str, substring)
		}
		return false
	}
}
