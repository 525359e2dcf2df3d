// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Backend stores media in an S3-compatible bucket with path-style access
// (required by CEPH/Hetzner). Objects are uploaded public-read and served
// straight from the bucket or a CDN in front of it.
type S3Backend struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// NewS3 creates an S3 storage backend with static credentials and
// path-style addressing.
func NewS3(endpoint, region, accessKey, secretKey, bucket, publicURL string) *S3Backend {
	// Strip trailing slash from endpoint for consistent URL building.
	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3Backend{
		s3:        client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Save uploads an object with public-read ACL so it can be served directly.
func (b *S3Backend) Save(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := b.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", b.bucket, key, err)
	}
	return nil
}

// Delete removes an object from the bucket.
func (b *S3Backend) Delete(ctx context.Context, key string) error {
	_, err := b.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", b.bucket, key, err)
	}
	return nil
}

// URL returns the public URL for an object. Uses the configured public URL
// if set, otherwise builds a path-style URL.
func (b *S3Backend) URL(key string) string {
	if b.publicURL != "" {
		return b.publicURL + "/" + key
	}
	return b.endpoint + "/" + b.bucket + "/" + key
}
