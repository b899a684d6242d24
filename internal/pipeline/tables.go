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

package pipeline

import (
	"github.com/cardinalhq/songlake/internal/model"
	"github.com/cardinalhq/songlake/internal/parquetwriter"
)

// SongsTable is partitioned by (year, artist_name).
var SongsTable = parquetwriter.Table[model.SongDim]{
	Name:        model.TableSongs,
	PartitionBy: []string{"year", "artist_name"},
	PartitionValues: func(r model.SongDim) []any {
		return []any{r.Year, r.ArtistName}
	},
	Less: func(a, b model.SongDim) bool { return a.SongID < b.SongID },
}

// ArtistsTable is partitioned by name.
var ArtistsTable = parquetwriter.Table[model.ArtistDim]{
	Name:        model.TableArtists,
	PartitionBy: []string{"name"},
	PartitionValues: func(r model.ArtistDim) []any {
		return []any{r.Name}
	},
	Less: func(a, b model.ArtistDim) bool { return a.ArtistID < b.ArtistID },
}

// UsersTable is partitioned by first_name_letter.
var UsersTable = parquetwriter.Table[model.UserDim]{
	Name:        model.TableUsers,
	PartitionBy: []string{"first_name_letter"},
	PartitionValues: func(r model.UserDim) []any {
		return []any{r.FirstNameLetter}
	},
	Less: func(a, b model.UserDim) bool { return a.UserID < b.UserID },
}

// TimeTable is partitioned by (year, month).
var TimeTable = parquetwriter.Table[model.TimeDim]{
	Name:        model.TableTime,
	PartitionBy: []string{"year", "month"},
	PartitionValues: func(r model.TimeDim) []any {
		return []any{r.Year, r.Month}
	},
	Less: func(a, b model.TimeDim) bool { return a.TS < b.TS },
}

// SongPlaysTable is partitioned by (year, month); plays without a ts land
// in the default partition.
var SongPlaysTable = parquetwriter.Table[model.SongPlayFact]{
	Name:        model.TableSongPlays,
	PartitionBy: []string{"year", "month"},
	PartitionValues: func(r model.SongPlayFact) []any {
		return []any{r.Year, r.Month}
	},
	Less: func(a, b model.SongPlayFact) bool { return a.SongplayID < b.SongplayID },
}
