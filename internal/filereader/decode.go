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
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// Decode converts a raw row into a typed record using its mapstructure tags.
// JSON null leaves pointer fields nil. A scalar that does not hold a usable
// number for a numeric field also decodes to nil; a nested value in a scalar
// field is malformed.
func Decode[T any](row Row) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &out,
		TagName:    "mapstructure",
		DecodeHook: mapstructure.DecodeHookFuncValue(scalarHook),
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(map[string]any(row)); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return out, nil
}

// scalarHook coerces JSON scalars into the field's type. Nil means the
// field stays unset.
func scalarHook(from reflect.Value, to reflect.Value) (any, error) {
	data := from.Interface()
	target := to.Type()
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return toInt64(data), nil
	case reflect.Float32, reflect.Float64:
		return toFloat64(data), nil
	case reflect.String:
		switch v := data.(type) {
		case json.Number:
			return string(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		case int:
			return strconv.Itoa(v), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	}
	return data, nil
}

// toInt64 accepts integers and integral floats, including exponent form.
// Fractional or out-of-range numbers and non-numeric scalars give nil.
func toInt64(data any) any {
	switch v := data.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return integral(f)
	case float64:
		return integral(v)
	case float32:
		return integral(float64(v))
	case int, int8, int16, int32, int64:
		return v
	case string, bool:
		return nil
	}
	return data
}

func integral(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return nil
	}
	return int64(f)
}

func toFloat64(data any) any {
	switch v := data.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return f
	case float64, float32, int, int8, int16, int32, int64:
		return v
	case string, bool:
		return nil
	}
	return data
}
