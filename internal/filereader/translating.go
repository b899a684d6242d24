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

import "fmt"

// TranslatingReader wraps another Reader and applies a translator to every
// row it returns.
type TranslatingReader struct {
	reader     Reader
	translator RowTranslator
}

var _ Reader = (*TranslatingReader)(nil)

// NewTranslatingReader returns a reader that passes each row of reader
// through translator.
func NewTranslatingReader(reader Reader, translator RowTranslator) *TranslatingReader {
	return &TranslatingReader{reader: reader, translator: translator}
}

func (r *TranslatingReader) GetRow() (Row, error) {
	row, err := r.reader.GetRow()
	if err != nil {
		return nil, err
	}
	out, err := r.translator.TranslateRow(row)
	if err != nil {
		return nil, fmt.Errorf("translate row: %w", err)
	}
	return out, nil
}

func (r *TranslatingReader) Close() error {
	return r.reader.Close()
}

// RenameTranslator renames columns. Columns not in the map pass through.
// When a renamed column collides with an existing one, the renamed value wins.
type RenameTranslator map[string]string

func (t RenameTranslator) TranslateRow(in Row) (Row, error) {
	out := make(Row, len(in))
	for k, v := range in {
		if _, renamed := t[k]; renamed {
			continue
		}
		out[k] = v
	}
	for from, to := range t {
		if v, ok := in[from]; ok {
			out[to] = v
		}
	}
	return out, nil
}
