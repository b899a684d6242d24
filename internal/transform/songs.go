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
	"github.com/cardinalhq/songlake/internal/model"
)

func earliestSong(candidate, current model.SongRecord) bool {
	return candidate.Pos.Less(current.Pos)
}

// BuildSongs keeps one row per non-null song_id, the earliest in input
// order, projected to the songs dimension.
func (b *Builder) BuildSongs(records []model.SongRecord) []model.SongDim {
	survivors := dedup(b.workers(), records,
		func(r model.SongRecord) (string, bool) { return stringKey(r.SongID) },
		earliestSong,
	)

	songs := make([]model.SongDim, len(survivors))
	for i, r := range survivors {
		songs[i] = model.SongDim{
			SongID:     *r.SongID,
			Title:      r.Title,
			ArtistID:   r.ArtistID,
			Year:       r.Year,
			Duration:   r.Duration,
			ArtistName: r.ArtistName,
		}
	}
	return songs
}

// BuildArtists keeps one row per non-null artist_id, the earliest in input
// order, with the artist_ prefix dropped from the descriptive columns.
func (b *Builder) BuildArtists(records []model.SongRecord) []model.ArtistDim {
	survivors := dedup(b.workers(), records,
		func(r model.SongRecord) (string, bool) { return stringKey(r.ArtistID) },
		earliestSong,
	)

	artists := make([]model.ArtistDim, len(survivors))
	for i, r := range survivors {
		artists[i] = model.ArtistDim{
			ArtistID:  *r.ArtistID,
			Name:      r.ArtistName,
			Location:  r.ArtistLocation,
			Latitude:  r.ArtistLatitude,
			Longitude: r.ArtistLongitude,
		}
	}
	return artists
}
