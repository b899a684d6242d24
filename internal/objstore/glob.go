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

package objstore

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Glob returns the keys matching a path.Match pattern such as
// "songs/A/*/*/*.json", sorted. Only the literal leading directories of the
// pattern are listed.
func Glob(ctx context.Context, store Store, pattern string) ([]string, error) {
	pattern = strings.Trim(pattern, "/")
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	objects, err := store.List(ctx, literalPrefix(pattern))
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, o := range objects {
		if ok, _ := path.Match(pattern, o.Key); ok {
			keys = append(keys, o.Key)
		}
	}
	return keys, nil
}

func literalPrefix(pattern string) string {
	segments := strings.Split(pattern, "/")
	var literal []string
	for _, s := range segments[:len(segments)-1] {
		if strings.ContainsAny(s, `*?[\`) {
			break
		}
		literal = append(literal, s)
	}
	return DirPrefix(strings.Join(literal, "/"))
}
