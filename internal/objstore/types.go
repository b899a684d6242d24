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

// Package objstore is the storage layer under the lake: a small object-store
// interface rooted at a location, with local filesystem, in-memory, S3 (and
// S3-compatible) and Azure Blob implementations.
package objstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned (wrapped) by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectInfo contains metadata about an object
type ObjectInfo struct {
	Key  string
	Size int64
}

// Store provides list/get/put/delete on keys relative to the store's root.
// Keys always use forward slashes.
type Store interface {
	// List returns every object under prefix, recursively, sorted by key.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Get retrieves an object and returns a reader for its contents.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Put stores an object, replacing any existing one.
	Put(ctx context.Context, key string, r io.Reader) error

	// DeletePrefix removes every object under prefix. Removing nothing is
	// not an error.
	DeletePrefix(ctx context.Context, prefix string) error

	// URL returns an address for key that external readers such as DuckDB
	// understand.
	URL(key string) string
}

// Join builds a key from slash-separated parts, dropping empty ones.
func Join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p != "" {
			kept = append(kept, p)
		}
	}
	return path.Join(kept...)
}

// DirPrefix returns key with exactly one trailing slash, so listing it
// cannot match sibling keys that merely share a name prefix.
func DirPrefix(key string) string {
	key = strings.Trim(key, "/")
	if key == "" {
		return ""
	}
	return key + "/"
}
