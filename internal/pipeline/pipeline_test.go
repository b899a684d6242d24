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
	"context"
	"strings"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/songlake/internal/engine"
	"github.com/cardinalhq/songlake/internal/model"
	"github.com/cardinalhq/songlake/internal/objstore"
	"github.com/cardinalhq/songlake/internal/parquetwriter"
)

const (
	songYellow  = `{"song_id":"S1","title":"Yellow","artist_id":"AR1","year":2000,"duration":259.5,"artist_name":"Coldplay","artist_location":"London","artist_latitude":51.5,"artist_longitude":-0.12}`
	songYellow2 = `{"song_id":"S1","title":"Yellow (Live)","artist_id":"AR1","year":2000,"duration":259.5,"artist_name":"Coldplay","artist_location":"London","artist_latitude":51.5,"artist_longitude":-0.12}`
	songNoID    = `{"song_id":null,"title":"Orphan","artist_id":"AR2","year":0,"duration":100.0,"artist_name":"Nobody","artist_location":null,"artist_latitude":null,"artist_longitude":null}`
	songBlondie = `{"song_id":"S2","title":"Call Me","artist_id":"AR3","year":1980,"duration":212.0,"artist_name":"Blondie","artist_location":"","artist_latitude":null,"artist_longitude":null}`
)

var testLogs = strings.Join([]string{
	// matched play
	`{"artist":"Coldplay","auth":"Logged In","firstName":"Lily","gender":"F","itemInSession":0,"lastName":"Koch","length":259.5,"level":"free","location":"Chicago","method":"PUT","page":"NextSong","registration":1.541048010796E12,"sessionId":172,"song":"Yellow","status":200,"ts":1542242481796,"userAgent":"Mozilla","userId":"15"}`,
	// not a play
	`{"artist":null,"auth":"Logged In","firstName":"Zed","gender":"M","itemInSession":1,"lastName":"Z","length":null,"level":"free","location":"Boston","method":"GET","page":"PageView","sessionId":9,"song":null,"ts":1542242481000,"userAgent":"Mozilla","userId":"99"}`,
	// unmatched play, same user upgraded later
	`{"artist":"Unknown Band","auth":"Logged In","firstName":"Lily","gender":"F","itemInSession":1,"lastName":"Koch","length":180.0,"level":"paid","location":"Chicago","method":"PUT","page":"NextSong","sessionId":172,"song":"Nope","status":200,"ts":1542242741796,"userAgent":"Mozilla","userId":"15"}`,
	// play without a user and without a ts
	`{"artist":"Blondie","auth":"Logged Out","itemInSession":2,"length":212.0,"level":"free","page":"NextSong","sessionId":5,"song":"Call Me","userAgent":"curl"}`,
}, "\n") + "\n"

func seedInput(t *testing.T) *objstore.MemoryStore {
	t.Helper()
	in := objstore.NewMemoryStore("raw")
	in.PutString("songs/A/A/A/TRAAA1.json", songYellow+"\n")
	in.PutString("songs/A/A/B/TRAAB1.json", songYellow2+"\n")
	in.PutString("songs/A/B/A/TRABA1.json", songNoID+"\n")
	in.PutString("songs/A/B/B/TRABB1.json", songBlondie+"\n")
	in.PutString("songs/B/A/A/TRBAA1.json", `{"song_id":"SB","title":"Skipped","artist_id":"ARB"}`+"\n")
	in.PutString("logs/2018/11/2018-11-15-events.json", testLogs)
	return in
}

func runPipeline(t *testing.T, in objstore.Store, out objstore.Store, runID string) Report {
	t.Helper()
	sess := engine.NewSession(in, out, engine.WithWorkers(4), engine.WithRunID(runID))
	report, err := Run(context.Background(), sess, Options{})
	require.NoError(t, err)
	return report
}

func readTable[T any](t *testing.T, store objstore.Store, name string) []T {
	t.Helper()
	rows, err := parquetwriter.ReadTable[T](context.Background(), store, name)
	require.NoError(t, err)
	return rows
}

func TestRun_Scenarios(t *testing.T) {
	in := seedInput(t)
	out := objstore.NewMemoryStore("lake")
	report := runPipeline(t, in, out, "run1")

	assert.Equal(t, 4, report.Songs.Files)
	assert.Equal(t, 1, report.Songs.MissingSongID)
	assert.Equal(t, int64(2), report.Songs.Songs)
	assert.Equal(t, int64(3), report.Songs.Artists)
	assert.Equal(t, int64(4), report.Logs.Events)
	assert.Equal(t, 3, report.Logs.Plays)
	assert.Equal(t, 1, report.Logs.MissingUserID)
	assert.Equal(t, 1, report.Logs.NullTS)
	assert.Equal(t, 1, report.Logs.Unmatched)

	// Scenario 1: one row per song_id, the earliest file wins.
	songs := readTable[model.SongDim](t, out, model.TableSongs)
	require.Len(t, songs, 2)
	byID := map[string]model.SongDim{}
	for _, s := range songs {
		byID[s.SongID] = s
	}
	require.Contains(t, byID, "S1")
	assert.Equal(t, "Yellow", *byID["S1"].Title)

	artists := readTable[model.ArtistDim](t, out, model.TableArtists)
	require.Len(t, artists, 3)

	// Scenario 2: the PageView user never shows up.
	users := readTable[model.UserDim](t, out, model.TableUsers)
	require.Len(t, users, 1)
	assert.Equal(t, "15", users[0].UserID)
	assert.Equal(t, "paid", *users[0].Level)
	assert.Equal(t, "L", *users[0].FirstNameLetter)

	times := readTable[model.TimeDim](t, out, model.TableTime)
	require.Len(t, times, 2)
	for _, tm := range times {
		assert.NotEqual(t, int64(1542242481000), tm.TS)
	}

	facts := readTable[model.SongPlayFact](t, out, model.TableSongPlays)
	require.Len(t, facts, 3)
	byPlay := map[int64]model.SongPlayFact{}
	for _, f := range facts {
		byPlay[f.SongplayID] = f
	}

	// Scenario 3: matched.
	matched := byPlay[1]
	require.NotNil(t, matched.SongID)
	assert.Equal(t, "S1", *matched.SongID)
	assert.Equal(t, "AR1", *matched.ArtistID)

	// Scenario 4: unmatched but present.
	unmatched := byPlay[2]
	assert.Nil(t, unmatched.SongID)
	assert.Nil(t, unmatched.ArtistID)
	assert.Equal(t, "paid", *unmatched.Level)

	// Scenario 5: derived time parts.
	require.NotNil(t, matched.Timestamp)
	assert.True(t, matched.Timestamp.Equal(time.Date(2018, 11, 15, 0, 41, 21, 0, time.UTC)))
	assert.Equal(t, int32(2018), *matched.Year)
	assert.Equal(t, int32(11), *matched.Month)

	// The ts-less Blondie play matches by text and length, and keeps null time.
	noTS := byPlay[3]
	require.NotNil(t, noTS.SongID)
	assert.Equal(t, "S2", *noTS.SongID)
	assert.Nil(t, noTS.Timestamp)
	assert.Nil(t, noTS.Year)
	assert.Nil(t, noTS.UserID)

	files, err := parquetwriter.PartFiles(context.Background(), out, model.TableSongPlays)
	require.NoError(t, err)
	assert.Contains(t, files, "songplays/year=2018/month=11/part-00000-run1.zstd.parquet")
	assert.Contains(t, files, "songplays/year=__HIVE_DEFAULT_PARTITION__/month=__HIVE_DEFAULT_PARTITION__/part-00000-run1.zstd.parquet")
}

func TestRun_Idempotent(t *testing.T) {
	in := seedInput(t)
	out := objstore.NewMemoryStore("lake")

	runPipeline(t, in, out, "runA")
	firstSongs := readTable[model.SongDim](t, out, model.TableSongs)
	firstFacts := readTable[model.SongPlayFact](t, out, model.TableSongPlays)

	runPipeline(t, in, out, "runB")
	assert.Equal(t, firstSongs, readTable[model.SongDim](t, out, model.TableSongs))

	secondFacts := readTable[model.SongPlayFact](t, out, model.TableSongPlays)
	require.Len(t, secondFacts, len(firstFacts))
	for i := range firstFacts {
		assert.Equal(t, firstFacts[i].SongplayID, secondFacts[i].SongplayID)
		assert.Equal(t, firstFacts[i].SongID, secondFacts[i].SongID)
	}

	// No files from the first run survive.
	objects, err := out.List(context.Background(), "")
	require.NoError(t, err)
	secondParts := 0
	for _, o := range objects {
		assert.NotContains(t, o.Key, "-runA.zstd.parquet")
		if strings.HasSuffix(o.Key, "-runB.zstd.parquet") {
			secondParts++
		}
	}
	assert.Positive(t, secondParts)
}

func TestRun_Uniqueness(t *testing.T) {
	in := seedInput(t)
	// Duplicate every log line in a second file.
	in.PutString("logs/2018/11/2018-11-16-events.json", testLogs)
	out := objstore.NewMemoryStore("lake")
	runPipeline(t, in, out, "dup")

	users := readTable[model.UserDim](t, out, model.TableUsers)
	seenUsers := mapset.NewSet[string]()
	for _, u := range users {
		assert.True(t, seenUsers.Add(u.UserID), "duplicate user %s", u.UserID)
	}

	times := readTable[model.TimeDim](t, out, model.TableTime)
	seenTS := mapset.NewSet[int64]()
	for _, tm := range times {
		assert.True(t, seenTS.Add(tm.TS), "duplicate ts %d", tm.TS)
	}

	// Completeness: every play produces a fact.
	facts := readTable[model.SongPlayFact](t, out, model.TableSongPlays)
	assert.Len(t, facts, 6)
}

func TestRun_NoInput(t *testing.T) {
	sess := engine.NewSession(objstore.NewMemoryStore("empty"), objstore.NewMemoryStore("lake"))
	_, err := Run(context.Background(), sess, Options{})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestLogStage_RequiresCompletedDimensions(t *testing.T) {
	in := seedInput(t)
	sess := engine.NewSession(in, objstore.NewMemoryStore("lake"))
	_, err := LogStage{Prefix: DefaultLogPrefix}.Run(context.Background(), sess, ExistingArtifact())
	assert.ErrorIs(t, err, parquetwriter.ErrIncompleteTable)
}

func TestLogStage_FromExistingArtifact(t *testing.T) {
	in := seedInput(t)
	out := objstore.NewMemoryStore("lake")
	runPipeline(t, in, out, "seed")

	sess := engine.NewSession(in, out, engine.WithRunID("again"))
	stats, err := LogStage{Prefix: DefaultLogPrefix}.Run(context.Background(), sess, ExistingArtifact())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.SongPlays)
	assert.Equal(t, 1, stats.Unmatched)
}

func TestRun_MatchTolerance(t *testing.T) {
	in := seedInput(t)
	in.PutString("logs/2018/11/2018-11-15-events.json",
		`{"artist":"Coldplay","firstName":"Lily","lastName":"Koch","length":259.51,"level":"free","page":"NextSong","sessionId":1,"song":"Yellow","ts":1542242481796,"userId":"15"}`+"\n")

	exact := objstore.NewMemoryStore("exact")
	runPipeline(t, in, exact, "exact")
	facts := readTable[model.SongPlayFact](t, exact, model.TableSongPlays)
	require.Len(t, facts, 1)
	assert.Nil(t, facts[0].SongID)

	tolerant := objstore.NewMemoryStore("tolerant")
	sess := engine.NewSession(in, tolerant, engine.WithRunID("tol"))
	_, err := Run(context.Background(), sess, Options{MatchTolerance: 0.05})
	require.NoError(t, err)
	facts = readTable[model.SongPlayFact](t, tolerant, model.TableSongPlays)
	require.Len(t, facts, 1)
	require.NotNil(t, facts[0].SongID)
	assert.Equal(t, "S1", *facts[0].SongID)
}
