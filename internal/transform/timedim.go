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
	"strconv"
	"time"

	"github.com/cardinalhq/songlake/internal/model"
)

// EventTime converts an epoch-millisecond ts to a UTC timestamp with second
// precision. The division truncates toward zero.
func EventTime(ts int64) time.Time {
	return time.Unix(ts/1000, 0).UTC()
}

// Weekday numbers days 1 (Sunday) through 7 (Saturday).
func Weekday(t time.Time) int32 {
	return int32(t.Weekday()) + 1
}

// NewTimeDim breaks ts into its calendar parts.
func NewTimeDim(ts int64) model.TimeDim {
	t := EventTime(ts)
	_, week := t.ISOWeek()
	return model.TimeDim{
		TS:        ts,
		StartTime: t,
		Hour:      int32(t.Hour()),
		Day:       int32(t.YearDay()),
		Week:      int32(week),
		Month:     int32(t.Month()),
		Year:      int32(t.Year()),
		Weekday:   Weekday(t),
	}
}

// BuildTime returns one row per distinct non-null ts among the play events.
// Events with a null ts have no time to describe and are left out.
func (b *Builder) BuildTime(plays []model.LogEvent) []model.TimeDim {
	survivors := dedup(b.workers(), plays,
		func(e model.LogEvent) (string, bool) {
			if e.TS == nil {
				return "", false
			}
			return strconv.FormatInt(*e.TS, 10), true
		},
		func(candidate, current model.LogEvent) bool { return candidate.Pos.Less(current.Pos) },
	)

	rows := make([]model.TimeDim, len(survivors))
	for i, e := range survivors {
		rows[i] = NewTimeDim(*e.TS)
	}
	return rows
}
