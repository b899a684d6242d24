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

package transform

import (
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// keyFunc extracts a deduplication key. ok is false when the key is null,
// which excludes the row entirely.
type keyFunc[T any] func(T) (key string, ok bool)

// preferFunc reports whether candidate should replace current as the
// survivor for their shared key. It must be a strict order so the survivor
// does not depend on arrival order.
type preferFunc[T any] func(candidate, current T) bool

// dedup keeps one row per non-null key. Rows are hash-sharded by key across
// workers, each shard is reduced on its own goroutine, and the survivors are
// returned sorted by key.
func dedup[T any](workers int, rows []T, key keyFunc[T], prefer preferFunc[T]) []T {
	if workers < 1 {
		workers = 1
	}

	shards := make([][]T, workers)
	for _, row := range rows {
		k, ok := key(row)
		if !ok {
			continue
		}
		n := xxhash.Sum64String(k) % uint64(workers)
		shards[n] = append(shards[n], row)
	}

	reduced := make([]map[string]T, workers)
	var wg sync.WaitGroup
	for i := range shards {
		wg.Go(func() {
			survivors := make(map[string]T, len(shards[i]))
			for _, row := range shards[i] {
				k, _ := key(row)
				if current, found := survivors[k]; !found || prefer(row, current) {
					survivors[k] = row
				}
			}
			reduced[i] = survivors
		})
	}
	wg.Wait()

	type keyed struct {
		key string
		row T
	}
	var merged []keyed
	for _, survivors := range reduced {
		for k, row := range survivors {
			merged = append(merged, keyed{key: k, row: row})
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].key < merged[j].key })

	out := make([]T, len(merged))
	for i, m := range merged {
		out[i] = m.row
	}
	return out
}

func stringKey(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
