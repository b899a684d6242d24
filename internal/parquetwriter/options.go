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

package parquetwriter

import (
	"github.com/parquet-go/parquet-go"
)

// DefaultRowsPerFile bounds how many rows one part file holds.
const DefaultRowsPerFile = 500_000

// WriterOptions is the shared parquet-go configuration for every table.
func WriterOptions(tmpdir string) []parquet.WriterOption {
	return []parquet.WriterOption{
		parquet.Compression(&parquet.Zstd),
		parquet.PageBufferSize(32 * 1024),
		parquet.MaxRowsPerRowGroup(80_000),
		parquet.ColumnPageBuffers(
			parquet.NewFileBufferPool(tmpdir, "buffers.*"),
		),
	}
}

// WriteOptions tune a single WriteTable call.
type WriteOptions struct {
	// RunID is embedded in part file names and the success marker.
	RunID string

	// Concurrency bounds the number of part files encoded at once.
	// Zero means GOMAXPROCS.
	Concurrency int

	// RowsPerFile splits large partitions; zero means DefaultRowsPerFile.
	RowsPerFile int

	// TmpDir holds parquet page buffers. Empty means the OS default.
	TmpDir string
}
