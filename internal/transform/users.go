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
	"unicode/utf8"

	"github.com/cardinalhq/songlake/internal/model"
)

// latestUserEvent prefers the event with the greater ts so the surviving
// row carries the user's most recent level. Null ts sorts first; equal ts
// falls back to input order.
func latestUserEvent(candidate, current model.LogEvent) bool {
	switch {
	case candidate.TS == nil && current.TS == nil:
	case candidate.TS == nil:
		return false
	case current.TS == nil:
		return true
	case *candidate.TS != *current.TS:
		return *candidate.TS > *current.TS
	}
	return candidate.Pos.Less(current.Pos)
}

// BuildUsers keeps one row per non-null user_id among the play events.
func (b *Builder) BuildUsers(plays []model.LogEvent) []model.UserDim {
	survivors := dedup(b.workers(), plays,
		func(e model.LogEvent) (string, bool) { return stringKey(e.UserID) },
		latestUserEvent,
	)

	users := make([]model.UserDim, len(survivors))
	for i, e := range survivors {
		users[i] = model.UserDim{
			UserID:          *e.UserID,
			FirstName:       e.FirstName,
			FirstNameLetter: FirstLetter(e.FirstName),
			LastName:        e.LastName,
			Gender:          e.Gender,
			Level:           e.Level,
		}
	}
	return users
}

// FirstLetter returns the first character of s, or nil when s is nil or
// empty.
func FirstLetter(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	r, size := utf8.DecodeRuneInString(*s)
	if r == utf8.RuneError && size <= 1 {
		letter := (*s)[:1]
		return &letter
	}
	letter := (*s)[:size]
	return &letter
}
