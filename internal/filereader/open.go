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

package filereader

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"
)

// NewReaderForKey picks a reader by object key suffix: `.json.gz` and
// `.jsonl.gz` are gunzipped, anything else is read as plain JSON lines.
func NewReaderForKey(key string, body io.ReadCloser) (*JSONLinesReader, error) {
	if !strings.HasSuffix(key, ".gz") {
		return NewJSONLinesReader(body)
	}
	gz, err := gzip.NewReader(body)
	if err != nil {
		_ = body.Close()
		return nil, fmt.Errorf("open gzip %s: %w", key, err)
	}
	return NewJSONLinesReader(&gzipReadCloser{Reader: gz, body: body})
}

type gzipReadCloser struct {
	*gzip.Reader
	body io.Closer
}

func (g *gzipReadCloser) Close() error {
	gzErr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return gzErr
}

// IsJSONKey reports whether an object key looks like a JSON lines file.
func IsJSONKey(key string) bool {
	for _, suffix := range []string{".json", ".jsonl", ".json.gz", ".jsonl.gz"} {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
