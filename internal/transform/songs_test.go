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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/songlake/internal/model"
)

func ptr[T any](v T) *T { return &v }

func song(line int, songID, title, artistID, artistName string, duration float64) model.SongRecord {
	r := model.SongRecord{
		Title:      ptr(title),
		Duration:   ptr(duration),
		ArtistName: ptr(artistName),
		Year:       ptr(int64(2004)),
		Pos:        model.Pos{Line: line},
	}
	if songID != "" {
		r.SongID = ptr(songID)
	}
	if artistID != "" {
		r.ArtistID = ptr(artistID)
	}
	return r
}

func TestBuildSongsDeduplicatesBySongID(t *testing.T) {
	records := []model.SongRecord{
		song(2, "S1", "Second Title", "A1", "Coldplay", 259.5),
		song(1, "S1", "First Title", "A1", "Coldplay", 259.5),
		song(3, "S2", "Other", "A2", "Muse", 180),
	}

	for _, workers := range []int{1, 2, 7} {
		b := &Builder{Workers: workers}
		songs := b.BuildSongs(records)
		require.Len(t, songs, 2)
		assert.Equal(t, "S1", songs[0].SongID)
		assert.Equal(t, "First Title", *songs[0].Title, "earliest record in input order survives")
		assert.Equal(t, "S2", songs[1].SongID)
	}
}

func TestBuildSongsDropsNullSongID(t *testing.T) {
	records := []model.SongRecord{
		song(1, "", "No ID", "A1", "Coldplay", 100),
		song(2, "S1", "Yellow", "A1", "Coldplay", 259.5),
	}

	songs := NewBuilder().BuildSongs(records)
	require.Len(t, songs, 1)
	assert.Equal(t, "S1", songs[0].SongID)
	assert.Equal(t, "A1", *songs[0].ArtistID)
	assert.Equal(t, "Coldplay", *songs[0].ArtistName)
	assert.Equal(t, int64(2004), *songs[0].Year)
	assert.Equal(t, 259.5, *songs[0].Duration)
}

func TestBuildSongsIgnoresArrivalOrder(t *testing.T) {
	a := song(1, "S1", "A", "A1", "X", 1)
	b := song(2, "S1", "B", "A1", "X", 1)
	c := song(3, "S1", "C", "A1", "X", 1)

	builder := &Builder{Workers: 3}
	first := builder.BuildSongs([]model.SongRecord{a, b, c})
	second := builder.BuildSongs([]model.SongRecord{c, b, a})
	assert.Equal(t, first, second)
}

func TestBuildArtistsRenamesColumns(t *testing.T) {
	r := song(1, "S1", "Yellow", "A1", "Coldplay", 259.5)
	r.ArtistLocation = ptr("London")
	r.ArtistLatitude = ptr(51.5)
	r.ArtistLongitude = ptr(-0.12)
	dup := song(2, "S2", "Clocks", "A1", "Coldplay (dup)", 307)
	noArtist := song(3, "S3", "Orphan", "", "Nobody", 10)

	artists := NewBuilder().BuildArtists([]model.SongRecord{dup, noArtist, r})
	require.Len(t, artists, 1)
	a := artists[0]
	assert.Equal(t, "A1", a.ArtistID)
	assert.Equal(t, "Coldplay", *a.Name)
	assert.Equal(t, "London", *a.Location)
	assert.Equal(t, 51.5, *a.Latitude)
	assert.Equal(t, -0.12, *a.Longitude)
}

func TestBuildArtistsKeepsMissingOptionalFields(t *testing.T) {
	r := model.SongRecord{SongID: ptr("S1"), ArtistID: ptr("A1")}
	artists := NewBuilder().BuildArtists([]model.SongRecord{r})
	require.Len(t, artists, 1)
	assert.Nil(t, artists[0].Name)
	assert.Nil(t, artists[0].Latitude)
}
