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
	"io"
	"time"
)

// DatasetLoader loads an Apify dataset as a slice of Documents.
//
// A loader is configured with exactly one locator: an Actor ID or Task ID to
// start a new run, or the ID of an existing dataset. With a job locator,
// Load starts the run, waits for it to finish within the configured timeout,
// and reads the run's default dataset. With a dataset locator it reads the
// dataset directly.
//
// Example usage:
//
//	loader, err := apifyhaystack.NewDatasetLoader(client,
//	    apifyhaystack.WithActorID("apify/website-content-crawler"),
//	    apifyhaystack.WithRunInput(apifyhaystack.Record{"startUrls": []Record{{"url": "https://example.com"}}}),
//	    apifyhaystack.WithMapping(func(item apifyhaystack.Record) (*apifyhaystack.Document, error) {
//	        text, _ := item["text"].(string)
//	        if text == "" {
//	            return nil, nil
//	        }
//	        return apifyhaystack.NewDocument(text, map[string]interface{}{"url": item["url"]}), nil
//	    }),
//	)
//	if err != nil { log.Fatal(err) }
//	result, err := loader.Load(context.Background())
//
// A loader holds no state between calls; instances are safe to use from
// multiple goroutines as long as the mapping function is.
type DatasetLoader struct {
	client  RunClient
	opts    *LoaderOptions
	mapping MappingFunc
}

// LoaderOptions configures a DatasetLoader.
type LoaderOptions struct {
	ActorID      string             // Actor to run (mutually exclusive with TaskID and DatasetID)
	TaskID       string             // saved task to run
	DatasetID    string             // existing dataset to load, skipping any run
	RunInput     Record             // input payload for the run
	Mapping      MappingFunc        // record-to-document transform
	ContentField string             // fallback mapping: wrap this field as document content
	MissingField MissingFieldPolicy // what to do when ContentField is absent from a record
	RunTimeout   time.Duration      // bound on the wait for run completion
	Build        string             // Actor build tag or number
	MemoryMBytes int                // memory limit for the run, in megabytes
}

// LoaderOption represents a configuration function for LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithActorID sets the Actor to run.
func WithActorID(actorID string) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.ActorID = actorID
	}
}

// WithTaskID sets the saved Actor task to run.
func WithTaskID(taskID string) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.TaskID = taskID
	}
}

// WithDatasetID sets an existing dataset to load; no run is started.
func WithDatasetID(datasetID string) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.DatasetID = datasetID
	}
}

// WithRunInput sets the input payload passed to the Actor or task run.
func WithRunInput(input Record) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.RunInput = input
	}
}

// WithMapping sets the record-to-document mapping function.
func WithMapping(fn MappingFunc) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Mapping = fn
	}
}

// WithContentField selects the fallback mapping: each record's value at the
// given field becomes the document content. policy decides what happens when
// the field is missing.
func WithContentField(field string, policy MissingFieldPolicy) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.ContentField = field
		opts.MissingField = policy
	}
}

// WithRunTimeout bounds the wait for run completion.
func WithRunTimeout(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.RunTimeout = timeout
	}
}

// WithBuild selects the Actor build to run, by tag or number.
func WithBuild(build string) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.Build = build
	}
}

// WithMemoryMBytes sets the memory limit for the run, in megabytes.
func WithMemoryMBytes(memoryMBytes int) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.MemoryMBytes = memoryMBytes
	}
}

// DefaultRunTimeout bounds the wait for run completion when the caller does
// not configure one. Crawling runs routinely take minutes.
const DefaultRunTimeout = 10 * time.Minute

// withDefaults fills unset options with defaults.
func (o *LoaderOptions) withDefaults() *LoaderOptions {
	if o.RunTimeout == 0 {
		o.RunTimeout = DefaultRunTimeout
	}
	return o
}

// NewDatasetLoader validates the configuration and constructs a loader.
// All misuse is rejected here, before any remote call is made.
func NewDatasetLoader(client RunClient, options ...LoaderOption) (*DatasetLoader, error) {
	opts := (&LoaderOptions{}).withDefaults()
	for _, option := range options {
		option(opts)
	}

	if client == nil {
		return nil, &ConfigError{Op: "loader", Msg: "run client is required"}
	}

	locators := 0
	for _, id := range []string{opts.ActorID, opts.TaskID, opts.DatasetID} {
		if id != "" {
			locators++
		}
	}
	switch {
	case locators == 0:
		return nil, &ConfigError{Op: "loader", Msg: "an actor ID, task ID, or dataset ID is required"}
	case locators > 1:
		return nil, &ConfigError{Op: "loader", Msg: "actor ID, task ID, and dataset ID are mutually exclusive"}
	}

	if opts.DatasetID != "" && opts.RunInput != nil {
		return nil, &ConfigError{Op: "loader", Msg: "run input has no effect when loading an existing dataset"}
	}
	if opts.Mapping == nil && opts.ContentField == "" {
		return nil, &ConfigError{Op: "loader", Msg: "a mapping function or a content field is required"}
	}
	if opts.Mapping != nil && opts.ContentField != "" {
		return nil, &ConfigError{Op: "loader", Msg: "mapping function and content field are mutually exclusive"}
	}
	if opts.RunTimeout <= 0 {
		return nil, &ConfigError{Op: "loader", Msg: "run timeout must be positive"}
	}

	mapping := opts.Mapping
	if mapping == nil {
		mapping = ContentFromField(opts.ContentField, opts.MissingField)
	}

	return &DatasetLoader{client: client, opts: opts, mapping: mapping}, nil
}

// LoadResult holds the documents produced by one Load call plus the metadata
// of the dataset they came from.
type LoadResult struct {
	Documents []Document // mapped documents, in dataset order
	DatasetID string     // dataset the documents were read from
	ItemCount int        // records retrieved, including skipped ones
}

// Load runs the three-phase sequence: start the run if a job locator was
// configured, wait for a terminal state, then read and map the dataset.
//
// The wait never cancels the remote run: on RunTimeoutError the run keeps
// going on the platform and can be re-checked later. Errors from the mapping
// function and from the client's transport are returned unmodified.
func (l *DatasetLoader) Load(ctx context.Context) (*LoadResult, error) {
	datasetID := l.opts.DatasetID
	if datasetID == "" {
		var err error
		if datasetID, err = l.runAndResolve(ctx); err != nil {
			return nil, err
		}
	}

	reader := l.client.DatasetItems(datasetID)
	defer reader.Close()

	result := &LoadResult{
		Documents: make([]Document, 0),
		DatasetID: datasetID,
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		result.ItemCount++

		doc, err := l.mapping(record)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			// Filtered out by the mapping function.
			continue
		}
		result.Documents = append(result.Documents, *doc)
	}

	return result, nil
}

// runAndResolve starts the configured run, waits for it, and returns the ID
// of its default dataset.
func (l *DatasetLoader) runAndResolve(ctx context.Context) (string, error) {
	locator := RunLocator{
		ActorID:      l.opts.ActorID,
		TaskID:       l.opts.TaskID,
		Build:        l.opts.Build,
		MemoryMBytes: l.opts.MemoryMBytes,
	}

	runID, err := l.client.StartRun(ctx, locator, l.opts.RunInput)
	if err != nil {
		return "", err
	}

	info, err := l.client.WaitForRun(ctx, runID, l.opts.RunTimeout)
	if err != nil {
		return "", err
	}

	if !info.Status.Terminal() {
		return "", &RunTimeoutError{RunID: runID, Timeout: l.opts.RunTimeout, Status: info.Status}
	}
	if info.Status != RunStatusSucceeded {
		return "", &RunError{RunID: runID, Status: info.Status, Msg: info.StatusMessage}
	}

	if info.DatasetID != "" {
		return info.DatasetID, nil
	}
	return l.client.RunDatasetID(ctx, runID)
}
