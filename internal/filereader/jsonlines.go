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
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxLineSizeBytes bounds a single JSON line.
const MaxLineSizeBytes = 16 * 1024 * 1024

// JSONLinesReader reads rows from a JSON lines stream.
type JSONLinesReader struct {
	scanner  *bufio.Scanner
	rowIndex int
	lastLine int
	closed   bool
	closer   io.Closer
}

var _ Reader = (*JSONLinesReader)(nil)

// NewJSONLinesReader creates a new JSONLinesReader for the given io.ReadCloser.
// The reader takes ownership of the closer and will close it when Close is called.
func NewJSONLinesReader(reader io.ReadCloser) (*JSONLinesReader, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSizeBytes)

	return &JSONLinesReader{
		scanner: scanner,
		closer:  reader,
	}, nil
}

// GetRow returns the next non-empty line as a Row. Numbers are kept as
// json.Number so integers such as epoch milliseconds survive exactly.
func (r *JSONLinesReader) GetRow() (Row, error) {
	if r.closed {
		return nil, io.EOF
	}

	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		r.rowIndex++

		// Skip empty lines
		if line == "" {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader([]byte(line)))
		dec.UseNumber()
		var row Row
		if err := dec.Decode(&row); err != nil {
			return nil, fmt.Errorf("%w: JSON parse error at line %d: %v", ErrMalformedRecord, r.rowIndex, err)
		}
		if row == nil {
			return nil, fmt.Errorf("%w: line %d is not a JSON object", ErrMalformedRecord, r.rowIndex)
		}

		r.lastLine = r.rowIndex
		return row, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error reading at line %d: %w", r.rowIndex+1, err)
	}
	return nil, io.EOF
}

// Line returns the 1-based line number of the row most recently returned.
func (r *JSONLinesReader) Line() int {
	return r.lastLine
}

// Close closes the reader and the underlying io.ReadCloser.
func (r *JSONLinesReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.closer != nil {
		err = r.closer.Close()
		r.closer = nil
	}
	r.scanner = nil
	return err
}
