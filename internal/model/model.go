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

// Package model holds the row shapes flowing through the songlake pipeline:
// the raw source records and the dimensional tables derived from them.
package model

import "time"

// Table names, which are also the directory names under the output root.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongPlays = "songplays"
)

// AllTables lists every table the pipeline writes, in write order.
var AllTables = []string{TableSongs, TableArtists, TableUsers, TableTime, TableSongPlays}

// PageNextSong is the page value that marks a log event as a song play.
const PageNextSong = "NextSong"

// Pos is a record's position in the canonical input order: source files
// sorted by object key, then line number within the file.
type Pos struct {
	File int
	Line int
}

// Less reports whether p comes before o in input order.
func (p Pos) Less(o Pos) bool {
	if p.File != o.File {
		return p.File < o.File
	}
	return p.Line < o.Line
}

// SongRecord is one song-metadata document. It is the source for both the
// songs and artists dimensions.
type SongRecord struct {
	SongID          *string  `mapstructure:"song_id"`
	Title           *string  `mapstructure:"title"`
	ArtistID        *string  `mapstructure:"artist_id"`
	Year            *int64   `mapstructure:"year"`
	Duration        *float64 `mapstructure:"duration"`
	ArtistName      *string  `mapstructure:"artist_name"`
	ArtistLocation  *string  `mapstructure:"artist_location"`
	ArtistLatitude  *float64 `mapstructure:"artist_latitude"`
	ArtistLongitude *float64 `mapstructure:"artist_longitude"`

	Pos Pos `mapstructure:"-"`
}

// LogEvent is one application log line, after field names have been
// canonicalized to snake_case.
type LogEvent struct {
	Page          *string  `mapstructure:"page"`
	UserID        *string  `mapstructure:"user_id"`
	FirstName     *string  `mapstructure:"first_name"`
	LastName      *string  `mapstructure:"last_name"`
	Gender        *string  `mapstructure:"gender"`
	Level         *string  `mapstructure:"level"`
	TS            *int64   `mapstructure:"ts"`
	SessionID     *int64   `mapstructure:"session_id"`
	ItemInSession *int64   `mapstructure:"item_in_session"`
	Location      *string  `mapstructure:"location"`
	UserAgent     *string  `mapstructure:"user_agent"`
	Artist        *string  `mapstructure:"artist"`
	Song          *string  `mapstructure:"song"`
	Length        *float64 `mapstructure:"length"`

	Pos Pos `mapstructure:"-"`
}

// IsPlay reports whether the event is a song play.
func (e LogEvent) IsPlay() bool {
	return e.Page != nil && *e.Page == PageNextSong
}

type SongDim struct {
	SongID     string   `parquet:"song_id"`
	Title      *string  `parquet:"title"`
	ArtistID   *string  `parquet:"artist_id"`
	Year       *int64   `parquet:"year"`
	Duration   *float64 `parquet:"duration"`
	ArtistName *string  `parquet:"artist_name"`
}

type ArtistDim struct {
	ArtistID  string   `parquet:"artist_id"`
	Name      *string  `parquet:"name"`
	Location  *string  `parquet:"location"`
	Latitude  *float64 `parquet:"latitude"`
	Longitude *float64 `parquet:"longitude"`
}

// UserDim is one user. FirstNameLetter exists only to partition the table.
type UserDim struct {
	UserID          string  `parquet:"user_id"`
	FirstName       *string `parquet:"first_name"`
	FirstNameLetter *string `parquet:"first_name_letter"`
	LastName        *string `parquet:"last_name"`
	Gender          *string `parquet:"gender"`
	Level           *string `parquet:"level"`
}

// TimeDim is one distinct play timestamp broken into calendar parts.
// TS is the raw epoch-millisecond value the row was deduplicated on.
type TimeDim struct {
	TS        int64     `parquet:"ts"`
	StartTime time.Time `parquet:"start_time"`
	Hour      int32     `parquet:"hour"`
	Day       int32     `parquet:"day"`
	Week      int32     `parquet:"week"`
	Month     int32     `parquet:"month"`
	Year      int32     `parquet:"year"`
	Weekday   int32     `parquet:"weekday"`
}

// SongPlayFact is one play event. SongID and ArtistID are nil when the play
// could not be matched to a known song.
type SongPlayFact struct {
	SongplayID int64      `parquet:"songplay_id"`
	UserID     *string    `parquet:"user_id"`
	Level      *string    `parquet:"level"`
	SongID     *string    `parquet:"song_id"`
	ArtistID   *string    `parquet:"artist_id"`
	SessionID  *int64     `parquet:"session_id"`
	Location   *string    `parquet:"location"`
	UserAgent  *string    `parquet:"user_agent"`
	Timestamp  *time.Time `parquet:"timestamp"`
	Year       *int32     `parquet:"year"`
	Month      *int32     `parquet:"month"`
}
