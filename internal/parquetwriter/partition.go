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
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// HiveDefaultPartition names the directory for null partition values.
const HiveDefaultPartition = "__HIVE_DEFAULT_PARTITION__"

// PartitionPath renders "col=value/col=value" for the given columns and
// values. Nil values (including typed nil pointers) and empty strings map
// to HiveDefaultPartition.
func PartitionPath(columns []string, values []any) (string, error) {
	if len(columns) != len(values) {
		return "", fmt.Errorf("partition has %d columns but %d values", len(columns), len(values))
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		v, err := FormatPartitionValue(values[i])
		if err != nil {
			return "", fmt.Errorf("partition column %s: %w", col, err)
		}
		parts[i] = EscapePathName(col) + "=" + v
	}
	return strings.Join(parts, "/"), nil
}

// FormatPartitionValue renders a single partition value as a directory
// name component.
func FormatPartitionValue(v any) (string, error) {
	if v == nil {
		return HiveDefaultPartition, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return HiveDefaultPartition, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.String:
		if rv.String() == "" {
			return HiveDefaultPartition, nil
		}
		return EscapePathName(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	default:
		return "", fmt.Errorf("unsupported partition value type %s", rv.Type())
	}
}

// EscapePathName percent-encodes the characters Hive refuses in partition
// directory names.
func EscapePathName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if needsEscape(r) {
			for _, c := range []byte(string(r)) {
				fmt.Fprintf(&b, "%%%02X", c)
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func needsEscape(r rune) bool {
	if r < 0x20 || r == 0x7F {
		return true
	}
	switch r {
	case '"', '#', '%', '\'', '*', '/', ':', '=', '?', '\\', '{', '[', ']', '^':
		return true
	}
	return false
}
