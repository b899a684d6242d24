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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/songlake/internal/model"
)

func lookupFixture(policy MatchPolicy) *SongLookup {
	songs := []model.SongDim{
		{SongID: "S1", Title: ptr("Yellow"), ArtistID: ptr("A1"), Duration: ptr(259.5), ArtistName: ptr("Coldplay")},
		{SongID: "S2", Title: ptr("Clocks"), ArtistID: ptr("A1"), Duration: ptr(307.0)},
		{SongID: "S3", Title: ptr("Orphan"), ArtistID: ptr("A9"), Duration: ptr(100.0)},
		{SongID: "S4", Title: ptr("No Duration"), ArtistID: ptr("A1")},
	}
	artists := []model.ArtistDim{
		{ArtistID: "A1", Name: ptr("Coldplay")},
		{ArtistID: "A2", Name: ptr("Muse")},
	}
	return BuildSongLookup(songs, artists, policy)
}

func playOf(line int, artist, title string, length float64) model.LogEvent {
	e := play(line, "15", 1542242481796)
	e.Artist = ptr(artist)
	e.Song = ptr(title)
	e.Length = ptr(length)
	return e
}

func TestBuildSongLookupInnerJoin(t *testing.T) {
	l := lookupFixture(MatchPolicy{})
	assert.Equal(t, 2, l.Len(), "S3 has no artist and S4 has no duration")
}

func TestMatchPolicy(t *testing.T) {
	exact := MatchPolicy{}
	assert.True(t, exact.Matches(259.5, 259.5))
	assert.False(t, exact.Matches(259.5, 259.50001))

	loose := MatchPolicy{Tolerance: 0.01}
	assert.True(t, loose.Matches(259.5, 259.505))
	assert.False(t, loose.Matches(259.5, 259.52))
}

func TestBuildSongPlaysMatched(t *testing.T) {
	plays := []model.LogEvent{playOf(1, "Coldplay", "Yellow", 259.5)}
	facts := NewBuilder().BuildSongPlays(plays, lookupFixture(MatchPolicy{}))

	require.Len(t, facts, 1)
	f := facts[0]
	require.NotNil(t, f.SongID)
	require.NotNil(t, f.ArtistID)
	assert.Equal(t, "S1", *f.SongID)
	assert.Equal(t, "A1", *f.ArtistID)
	assert.Equal(t, int64(1), f.SongplayID)
	assert.Equal(t, "15", *f.UserID)
	assert.Equal(t, "free", *f.Level)
	assert.Equal(t, int64(818), *f.SessionID)
	assert.Equal(t, time.Date(2018, 11, 15, 0, 41, 21, 0, time.UTC), *f.Timestamp)
	assert.Equal(t, int32(2018), *f.Year)
	assert.Equal(t, int32(11), *f.Month)
}

func TestBuildSongPlaysUnmatchedKept(t *testing.T) {
	plays := []model.LogEvent{
		playOf(1, "Coldplay", "Yellow", 259.49),
		playOf(2, "Coldplay", "Unknown", 259.5),
		playOf(3, "Nobody", "Yellow", 259.5),
	}
	noLength := playOf(4, "Coldplay", "Yellow", 0)
	noLength.Length = nil
	plays = append(plays, noLength)

	facts := NewBuilder().BuildSongPlays(plays, lookupFixture(MatchPolicy{}))
	require.Len(t, facts, len(plays))
	for _, f := range facts {
		assert.Nil(t, f.SongID)
		assert.Nil(t, f.ArtistID)
	}
	assert.Equal(t, len(plays), CountUnmatched(facts))
}

func TestBuildSongPlaysWithTolerance(t *testing.T) {
	plays := []model.LogEvent{playOf(1, "Coldplay", "Yellow", 259.49)}
	facts := (&Builder{Match: MatchPolicy{Tolerance: 0.05}}).BuildSongPlays(plays, lookupFixture(MatchPolicy{Tolerance: 0.05}))
	require.Len(t, facts, 1)
	require.NotNil(t, facts[0].SongID)
	assert.Equal(t, "S1", *facts[0].SongID)
}

func TestResolvePrefersClosestThenLowestSongID(t *testing.T) {
	songs := []model.SongDim{
		{SongID: "S9", Title: ptr("Yellow"), ArtistID: ptr("A1"), Duration: ptr(259.5)},
		{SongID: "S5", Title: ptr("Yellow"), ArtistID: ptr("A1"), Duration: ptr(259.5)},
		{SongID: "S1", Title: ptr("Yellow"), ArtistID: ptr("A1"), Duration: ptr(258.0)},
	}
	artists := []model.ArtistDim{{ArtistID: "A1", Name: ptr("Coldplay")}}

	exact := BuildSongLookup(songs, artists, MatchPolicy{})
	songID, _ := exact.Resolve(ptr("Coldplay"), ptr("Yellow"), ptr(259.5))
	require.NotNil(t, songID)
	assert.Equal(t, "S5", *songID)

	loose := BuildSongLookup(songs, artists, MatchPolicy{Tolerance: 5})
	songID, _ = loose.Resolve(ptr("Coldplay"), ptr("Yellow"), ptr(258.1))
	require.NotNil(t, songID)
	assert.Equal(t, "S1", *songID)
}

func TestBuildSongPlaysNullTSKeepsRow(t *testing.T) {
	e := playOf(1, "Coldplay", "Yellow", 259.5)
	e.TS = nil
	facts := NewBuilder().BuildSongPlays([]model.LogEvent{e}, lookupFixture(MatchPolicy{}))
	require.Len(t, facts, 1)
	assert.Nil(t, facts[0].Timestamp)
	assert.Nil(t, facts[0].Year)
	assert.Nil(t, facts[0].Month)
	assert.NotNil(t, facts[0].SongID)
}

func TestBuildSongPlaysNumbersInInputOrder(t *testing.T) {
	plays := []model.LogEvent{
		playOf(3, "Coldplay", "Yellow", 259.5),
		playOf(1, "Nobody", "Nothing", 1),
		playOf(2, "Coldplay", "Clocks", 307),
	}
	facts := NewBuilder().BuildSongPlays(plays, lookupFixture(MatchPolicy{}))
	require.Len(t, facts, 3)
	assert.Equal(t, int64(1), facts[0].SongplayID)
	assert.Nil(t, facts[0].SongID)
	assert.Equal(t, int64(2), facts[1].SongplayID)
	assert.Equal(t, "S2", *facts[1].SongID)
	assert.Equal(t, int64(3), facts[2].SongplayID)
	assert.Equal(t, "S1", *facts[2].SongID)
}
