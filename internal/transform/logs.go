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
	"github.com/cardinalhq/songlake/internal/filereader"
	"github.com/cardinalhq/songlake/internal/model"
)

// LogFieldRenames maps the camelCase field names found in raw log lines to
// the snake_case names used everywhere downstream.
var LogFieldRenames = map[string]string{
	"firstName":     "first_name",
	"itemInSession": "item_in_session",
	"lastName":      "last_name",
	"sessionId":     "session_id",
	"userAgent":     "user_agent",
	"userId":        "user_id",
}

// CanonicalizeLogs returns the row translator applied to raw log rows
// before they are decoded into model.LogEvent.
func CanonicalizeLogs() filereader.RowTranslator {
	return filereader.RenameTranslator(LogFieldRenames)
}

// FilterPlays returns the song-play events, preserving their order.
func FilterPlays(events []model.LogEvent) []model.LogEvent {
	plays := make([]model.LogEvent, 0, len(events))
	for _, e := range events {
		if e.IsPlay() {
			plays = append(plays, e)
		}
	}
	return plays
}
