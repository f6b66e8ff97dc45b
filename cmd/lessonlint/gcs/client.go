// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrInvalidURL is returned by ParseURL for anything but gs://bucket[/prefix].
var ErrInvalidURL = errors.New("invalid gs:// url")

// Location is a bucket plus an object prefix.
type Location struct {
	Bucket string
	Prefix string
}

// ParseURL splits "gs://bucket/some/prefix" into its parts.
func ParseURL(raw string) (Location, error) {
	rest, ok := strings.CutPrefix(raw, "gs://")
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("%w: %q has no bucket", ErrInvalidURL, raw)
	}
	return Location{Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
}

// Object joins the prefix and name into an object path.
func (l Location) Object(name string) string {
	if l.Prefix == "" {
		return name
	}
	return path.Join(l.Prefix, name)
}

func (l Location) String() string {
	return "gs://" + path.Join(l.Bucket, l.Prefix)
}

type Client struct {
	storageClient *storage.Client
	Bucket        string
	logger        *slog.Logger
}

// NewClient creates a client for bucket. An empty saKeyPath uses
// application default credentials.
func NewClient(ctx context.Context, bucket, saKeyPath string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var opts []option.ClientOption
	if saKeyPath != "" {
		if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", saKeyPath)
		}
		opts = append(opts, option.WithCredentialsFile(saKeyPath))
	}

	storageClient, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &Client{
		storageClient: storageClient,
		Bucket:        bucket,
		logger:        logger.With(slog.String("component", "gcs")),
	}, nil
}

func (c *Client) Close() error {
	if c.storageClient == nil {
		return nil
	}
	return c.storageClient.Close()
}

// Upload streams r into the object. The object is not visible until the
// writer closes successfully.
func (c *Client) Upload(ctx context.Context, r io.Reader, object, contentType string) error {
	if c.storageClient == nil {
		return fmt.Errorf("gcs client for bucket %s is not initialized", c.Bucket)
	}
	writer := c.storageClient.Bucket(c.Bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, r); err != nil {
		writer.Close()
		return fmt.Errorf("failed to copy to GCS object %s: %w", object, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", object, err)
	}
	c.logger.Info("uploaded object", slog.String("bucket", c.Bucket), slog.String("object", object))
	return nil
}

func (c *Client) UploadFile(ctx context.Context, localPath, object string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open the local file: %s: %w", localPath, err)
	}
	defer localFile.Close()

	contentType := "application/octet-stream"
	switch path.Ext(localPath) {
	case ".json":
		contentType = "application/json"
	case ".xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return c.Upload(ctx, localFile, object, contentType)
}
