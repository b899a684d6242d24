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

// Package filereader reads newline-delimited JSON into raw rows, applies row
// translators, and decodes the result into typed records.
package filereader

// Row represents a single row of data as a map of column names to values.
type Row map[string]any

// Reader is the core interface for reading rows from any file format.
type Reader interface {
	// GetRow returns the next row of data.
	// Returns io.EOF when there are no more rows.
	// Returns error for any read failures.
	GetRow() (row Row, err error)

	// Close releases any resources held by the reader.
	Close() error
}

// RowTranslator transforms rows from one format to another.
type RowTranslator interface {
	TranslateRow(in Row) (Row, error)
}
