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

// Package filecrunch inspects Parquet files written to the lake.
package filecrunch

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

type FileHandle struct {
	File        *os.File
	Size        int64
	Schema      *parquet.Schema
	ParquetFile *parquet.File
}

func (fh *FileHandle) Close() error {
	if err := fh.File.Close(); err != nil {
		return err
	}
	return nil
}

func LoadSchemaForFile(filename string) (*FileHandle, error) {
	fh, err := openfile(filename)
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(fh.File, fh.Size)
	if err != nil {
		_ = fh.File.Close()
		return nil, fmt.Errorf("open parquet %s: %w", filename, err)
	}
	fh.ParquetFile = pf
	fh.Schema = pf.Schema()

	return fh, nil
}

func openfile(file string) (*FileHandle, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileHandle{
		File: f,
		Size: stat.Size(),
	}, nil
}

// ColumnSummary describes one top-level column.
type ColumnSummary struct {
	Name     string
	Type     string
	Optional bool
}

// Columns lists the file's top-level columns in schema order.
func (fh *FileHandle) Columns() []ColumnSummary {
	fields := fh.Schema.Fields()
	out := make([]ColumnSummary, 0, len(fields))
	for _, f := range fields {
		out = append(out, ColumnSummary{
			Name:     f.Name(),
			Type:     f.Type().String(),
			Optional: f.Optional(),
		})
	}
	return out
}

// NumRows returns the row count recorded in the file footer.
func (fh *FileHandle) NumRows() int64 {
	return fh.ParquetFile.NumRows()
}

// NumRowGroups returns the number of row groups in the file.
func (fh *FileHandle) NumRowGroups() int {
	return len(fh.ParquetFile.RowGroups())
}
