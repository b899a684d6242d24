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
	"math"
	"sort"

	"github.com/cardinalhq/songlake/internal/model"
)

// MatchPolicy decides whether a logged play length identifies a song of the
// given duration. The zero value requires exact equality.
type MatchPolicy struct {
	// Tolerance is the largest accepted absolute difference in seconds.
	Tolerance float64
}

// Matches reports whether length is accepted for duration.
func (p MatchPolicy) Matches(duration, length float64) bool {
	if p.Tolerance <= 0 {
		return duration == length
	}
	return math.Abs(duration-length) <= p.Tolerance
}

type songKey struct {
	name  string
	title string
}

type songCandidate struct {
	songID   string
	artistID string
	duration float64
}

// SongLookup resolves (artist name, song title, duration) to song and artist
// identity. It is the inner join of the songs and artists dimensions on
// artist_id.
type SongLookup struct {
	policy     MatchPolicy
	candidates map[songKey][]songCandidate
}

// BuildSongLookup joins songs to artists on artist_id. Rows missing the
// artist name, title, or duration can never match a play and are skipped.
func BuildSongLookup(songs []model.SongDim, artists []model.ArtistDim, policy MatchPolicy) *SongLookup {
	byArtist := make(map[string]model.ArtistDim, len(artists))
	for _, a := range artists {
		byArtist[a.ArtistID] = a
	}

	l := &SongLookup{
		policy:     policy,
		candidates: make(map[songKey][]songCandidate),
	}
	for _, s := range songs {
		if s.ArtistID == nil || s.Title == nil || s.Duration == nil {
			continue
		}
		a, ok := byArtist[*s.ArtistID]
		if !ok || a.Name == nil {
			continue
		}
		k := songKey{name: *a.Name, title: *s.Title}
		l.candidates[k] = append(l.candidates[k], songCandidate{
			songID:   s.SongID,
			artistID: a.ArtistID,
			duration: *s.Duration,
		})
	}
	for _, c := range l.candidates {
		sort.Slice(c, func(i, j int) bool {
			if c[i].songID != c[j].songID {
				return c[i].songID < c[j].songID
			}
			return c[i].artistID < c[j].artistID
		})
	}
	return l
}

// Len returns the number of joined song rows in the lookup.
func (l *SongLookup) Len() int {
	n := 0
	for _, c := range l.candidates {
		n += len(c)
	}
	return n
}

// Resolve finds the song a play refers to. When several songs match, the
// closest duration wins, then the lowest song_id. Nulls never match.
func (l *SongLookup) Resolve(artist, song *string, length *float64) (songID, artistID *string) {
	if l == nil || artist == nil || song == nil || length == nil {
		return nil, nil
	}
	cands := l.candidates[songKey{name: *artist, title: *song}]
	best := -1
	bestDiff := math.Inf(1)
	for i, c := range cands {
		if !l.policy.Matches(c.duration, *length) {
			continue
		}
		if diff := math.Abs(c.duration - *length); best < 0 || diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	if best < 0 {
		return nil, nil
	}
	sid, aid := cands[best].songID, cands[best].artistID
	return &sid, &aid
}

// BuildSongPlays left-joins every play to the lookup, producing exactly one
// fact row per play. songplay_id numbers the plays from 1 in input order.
func (b *Builder) BuildSongPlays(plays []model.LogEvent, lookup *SongLookup) []model.SongPlayFact {
	ordered := make([]model.LogEvent, len(plays))
	copy(ordered, plays)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Pos.Less(ordered[j].Pos) })

	facts := make([]model.SongPlayFact, len(ordered))
	for i, e := range ordered {
		songID, artistID := lookup.Resolve(e.Artist, e.Song, e.Length)
		f := model.SongPlayFact{
			SongplayID: int64(i + 1),
			UserID:     e.UserID,
			Level:      e.Level,
			SongID:     songID,
			ArtistID:   artistID,
			SessionID:  e.SessionID,
			Location:   e.Location,
			UserAgent:  e.UserAgent,
		}
		if e.TS != nil {
			t := EventTime(*e.TS)
			year, month := int32(t.Year()), int32(t.Month())
			f.Timestamp = &t
			f.Year = &year
			f.Month = &month
		}
		facts[i] = f
	}
	return facts
}

// CountUnmatched returns how many facts have no song identity.
func CountUnmatched(facts []model.SongPlayFact) int {
	n := 0
	for _, f := range facts {
		if f.SongID == nil {
			n++
		}
	}
	return n
}
