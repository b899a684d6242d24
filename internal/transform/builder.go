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

// Package transform builds the songlake dimension and fact tables from raw
// song records and log events. Everything here is pure: input slices in,
// table rows out. Reading and writing storage is the caller's job.
package transform

import (
	"runtime"
)

// Builder carries the knobs shared by every table builder.
type Builder struct {
	// Workers is the number of shards deduplication fans out to.
	// Zero means GOMAXPROCS.
	Workers int

	// Match decides whether a logged play length matches a song duration.
	Match MatchPolicy
}

// NewBuilder returns a Builder using all available processors and exact
// duration matching.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) workers() int {
	if b == nil || b.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return b.Workers
}
