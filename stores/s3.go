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
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	haystack "github.com/apify/apify-haystack"
)

// S3StoreError provides structured error information for S3 store operations.
type S3StoreError struct {
	Op  string // operation that failed (e.g., "create_aws_config", "put_object")
	Err error  // underlying error
}

func (e *S3StoreError) Error() string {
	return fmt.Sprintf("s3 store %s: %v", e.Op, e.Err)
}

func (e *S3StoreError) Unwrap() error {
	return e.Err
}

// S3StoreOptions configures the S3 document store.
type S3StoreOptions struct {
	Bucket         string          // S3 bucket name
	Key            string          // object key for the document dump
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // explicit credentials
	EndpointURL    string          // custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // use path-style addressing
	ContentType    string          // object content type
}

// S3StoreOption represents a configuration function for S3StoreOptions.
type S3StoreOption func(*S3StoreOptions)

// WithS3Bucket sets the target bucket.
func WithS3Bucket(bucket string) S3StoreOption {
	return func(opts *S3StoreOptions) {
		opts.Bucket = bucket
	}
}

// WithS3Key sets the object key the documents are written to.
func WithS3Key(key string) S3StoreOption {
	return func(opts *S3StoreOptions) {
		opts.Key = key
	}
}

// WithS3Region sets the AWS region.
func WithS3Region(region string) S3StoreOption {
	return func(opts *S3StoreOptions) {
		opts.Region = region
	}
}

// WithS3Profile sets the AWS shared-config profile.
func WithS3Profile(profile string) S3StoreOption {
	return func(opts *S3StoreOptions) {
		opts.Profile = profile
	}
}

// WithS3Credentials sets explicit AWS credentials.
func WithS3Credentials(creds aws.Credentials) S3StoreOption {
	return func(opts *S3StoreOptions) {
		opts.Credentials = creds
	}
}

// WithS3Endpoint points the client at an S3-compatible endpoint.
func WithS3Endpoint(endpointURL string, forcePathStyle bool) S3StoreOption {
	return func(opts *S3StoreOptions) {
		opts.EndpointURL = endpointURL
		opts.ForcePathStyle = forcePathStyle
	}
}

// S3Store implements DocumentStore by buffering documents as JSON Lines and
// uploading the buffer as one object on Flush. Repeated flushes overwrite
// the object with the complete accumulated set.
type S3Store struct {
	client *s3.Client
	opts   S3StoreOptions
	buf    bytes.Buffer
	dirty  bool
	mu     sync.Mutex
}

// NewS3Store creates an S3 document store with the specified options.
func NewS3Store(options ...S3StoreOption) (*S3Store, error) {
	opts := S3StoreOptions{
		ContentType: "application/x-ndjson",
	}
	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3StoreError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}
	if opts.Key == "" {
		return nil, &S3StoreError{Op: "validate_options", Err: fmt.Errorf("key is required")}
	}

	cfg, err := createAWSConfig(opts)
	if err != nil {
		return nil, &S3StoreError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return &S3Store{client: client, opts: opts}, nil
}

// Write implements the DocumentStore interface.
func (s *S3Store) Write(ctx context.Context, doc haystack.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(doc)
	if err != nil {
		return &S3StoreError{Op: "marshal", Err: err}
	}
	s.buf.Write(data)
	s.buf.WriteByte('\n')
	s.dirty = true
	return nil
}

// Flush uploads the accumulated documents as one object.
func (s *S3Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putObject(context.Background())
}

// Close uploads any pending documents. The S3 client holds no connections
// that need releasing.
func (s *S3Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putObject(context.Background())
}

// putObject uploads the buffer. Callers must hold the mutex.
func (s *S3Store) putObject(ctx context.Context) error {
	if !s.dirty {
		return nil
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(s.opts.Key),
		Body:        bytes.NewReader(s.buf.Bytes()),
		ContentType: aws.String(s.opts.ContentType),
	})
	if err != nil {
		return &S3StoreError{Op: "put_object", Err: err}
	}
	s.dirty = false
	return nil
}

// createAWSConfig creates AWS configuration from options.
func createAWSConfig(opts S3StoreOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}
