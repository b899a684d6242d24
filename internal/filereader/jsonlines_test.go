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
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAllRows is a helper function that reads all rows from a reader
func readAllRows(reader Reader) ([]Row, error) {
	var rows []Row
	for {
		row, err := reader.GetRow()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
}

// TestJSONLinesReaderEOFHandling tests that JSONLinesReader correctly handles all data before EOF
func TestJSONLinesReaderEOFHandling(t *testing.T) {
	// 3 JSON lines without final newline
	jsonData := `{"line": 1, "value": "first"}
{"line": 2, "value": "second"}
{"line": 3, "value": "third"}`

	reader, err := NewJSONLinesReader(io.NopCloser(bytes.NewReader([]byte(jsonData))))
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	rows, err := readAllRows(reader)
	require.NoError(t, err)

	assert.Len(t, rows, 3)
	assert.Equal(t, json.Number("1"), rows[0]["line"])
	assert.Equal(t, "first", rows[0]["value"])
	assert.Equal(t, "third", rows[2]["value"])
	assert.Equal(t, 3, reader.Line())
}

func TestJSONLinesReaderEmptyLines(t *testing.T) {
	jsonData := `{"line": 1}

{"line": 2}

`
	reader, err := NewJSONLinesReader(io.NopCloser(bytes.NewReader([]byte(jsonData))))
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	row, err := reader.GetRow()
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), row["line"])
	assert.Equal(t, 1, reader.Line())

	row, err = reader.GetRow()
	require.NoError(t, err)
	assert.Equal(t, json.Number("2"), row["line"])
	assert.Equal(t, 3, reader.Line())

	_, err = reader.GetRow()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, reader.Line(), "trailing blank lines do not move the last row's line")
}

func TestJSONLinesReaderKeepsLargeIntegers(t *testing.T) {
	reader, err := NewJSONLinesReader(io.NopCloser(bytes.NewReader([]byte(`{"ts": 1542242481796}`))))
	require.NoError(t, err)
	row, err := reader.GetRow()
	require.NoError(t, err)
	assert.Equal(t, json.Number("1542242481796"), row["ts"])
}

func TestJSONLinesReaderMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated", `{"line": 1`},
		{"array", `[1, 2]`},
		{"null", `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewJSONLinesReader(io.NopCloser(bytes.NewReader([]byte("{}\n" + tt.data))))
			require.NoError(t, err)
			_, err = readAllRows(reader)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRecord)
			assert.Contains(t, err.Error(), "line 2")
		})
	}
}

type mockReadCloser struct {
	io.Reader
	closed bool
}

func (m *mockReadCloser) Close() error {
	m.closed = true
	return nil
}

func TestJSONLinesReaderClose(t *testing.T) {
	rc := &mockReadCloser{Reader: bytes.NewReader([]byte(`{"a": 1}`))}
	reader, err := NewJSONLinesReader(rc)
	require.NoError(t, err)

	require.NoError(t, reader.Close())
	assert.True(t, rc.closed)
	require.NoError(t, reader.Close())

	_, err = reader.GetRow()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNewReaderForKeyGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("{\"line\": 1}\n{\"line\": 2}\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	rc := &mockReadCloser{Reader: &buf}
	reader, err := NewReaderForKey("logs/2018-11-01-events.json.gz", rc)
	require.NoError(t, err)

	rows, err := readAllRows(reader)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	require.NoError(t, reader.Close())
	assert.True(t, rc.closed)
}

func TestIsJSONKey(t *testing.T) {
	assert.True(t, IsJSONKey("logs/2018/11/2018-11-01-events.json"))
	assert.True(t, IsJSONKey("a.jsonl.gz"))
	assert.False(t, IsJSONKey("logs/_SUCCESS"))
	assert.False(t, IsJSONKey("songs/part-0.parquet"))
}
