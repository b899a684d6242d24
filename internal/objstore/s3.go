// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hashicorp/go-multierror"
)

// maxDeleteBatch is the S3 DeleteObjects limit.
const maxDeleteBatch = 1000

// S3Store implements Store on an S3 (or S3-compatible) bucket under a key
// prefix.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	scheme   string
	bucket   string
	prefix   string
}

var _ Store = (*S3Store)(nil)

// NewS3Store returns a store for bucket/prefix. scheme is only used to
// build URLs ("s3" or "gs").
func NewS3Store(client *s3.Client, scheme, bucket, prefix string) *S3Store {
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		scheme:   scheme,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}
}

func (s *S3Store) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) relKey(full string) string {
	if s.prefix == "" {
		return full
	}
	return strings.TrimPrefix(full, s.prefix+"/")
}

func (s *S3Store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.fullKey(prefix)),
	})

	var out []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.URL(prefix), err)
		}
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{
				Key:  s.relKey(aws.ToString(obj.Key)),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.URL(key))
		}
		return nil, fmt.Errorf("get %s: %w", s.URL(key), err)
	}
	recordGet(ctx, s.scheme)
	return resp.Body, nil
}

func (s *S3Store) Put(ctx context.Context, key string, r io.Reader) error {
	counted := &countingReader{r: r}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.fullKey(key)),
		Body:        counted,
		ContentType: aws.String(contentType(key)),
		Metadata: map[string]string{
			"writer": "songlake-go",
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.URL(key), err)
	}
	recordPut(ctx, s.scheme, counted.n)
	return nil
}

// DeletePrefix lists the prefix and removes the objects in batches. Every
// batch is attempted; failures are collected into one error.
func (s *S3Store) DeletePrefix(ctx context.Context, prefix string) error {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for start := 0; start < len(objects); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(objects))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, o := range objects[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(s.fullKey(o.Key))})
		}
		resp, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("delete batch at %d: %w", start, err))
			continue
		}
		for _, e := range resp.Errors {
			result = multierror.Append(result, fmt.Errorf("delete %s: %s", aws.ToString(e.Key), aws.ToString(e.Message)))
		}
	}
	return result.ErrorOrNil()
}

func (s *S3Store) URL(key string) string {
	return s.scheme + "://" + Join(s.bucket, s.prefix, key)
}

func isS3NotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".parquet"):
		return "application/vnd.apache.parquet"
	case strings.HasSuffix(key, ".json"):
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
