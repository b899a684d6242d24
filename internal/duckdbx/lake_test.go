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

package duckdbx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/songlake/internal/objstore"
	"github.com/cardinalhq/songlake/internal/parquetwriter"
)

type playRow struct {
	ID    int64      `parquet:"id"`
	Who   *string    `parquet:"who"`
	At    *time.Time `parquet:"at"`
	Year  *int32     `parquet:"year"`
	Score float64    `parquet:"score"`
}

var playTable = parquetwriter.Table[playRow]{
	Name:            "plays",
	PartitionBy:     []string{"year"},
	PartitionValues: func(r playRow) []any { return []any{r.Year} },
	Less:            func(a, b playRow) bool { return a.ID < b.ID },
}

func seedLake(t *testing.T, store objstore.Store) {
	t.Helper()
	u := "ann"
	y := int32(2018)
	at := time.Date(2018, 11, 15, 0, 41, 21, 0, time.UTC)
	rows := []playRow{
		{ID: 1, Who: &u, At: &at, Year: &y, Score: 259.5},
		{ID: 2, Who: nil, At: nil, Year: nil, Score: 212},
		{ID: 3, Who: &u, At: &at, Year: &y, Score: 0},
	}
	_, err := parquetwriter.WriteTable(context.Background(), store, playTable, rows, parquetwriter.WriteOptions{RunID: "t"})
	require.NoError(t, err)
}

func checkLake(t *testing.T, lake *Lake) {
	t.Helper()
	ctx := context.Background()

	assert.Equal(t, []string{"plays"}, lake.Tables)
	assert.Equal(t, []string{"songs"}, lake.Missing)

	n, err := lake.QueryInt(ctx, "SELECT count(*) FROM plays")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = lake.QueryInt(ctx, "SELECT count(*) FROM plays WHERE year IS NULL")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err := lake.Query(ctx, "SELECT id, who, score FROM plays ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "who", "score"}, res.Columns)
	assert.Equal(t, [][]string{
		{"1", "ann", "259.5"},
		{"2", "NULL", "212"},
		{"3", "ann", "0"},
	}, res.Rows)
}

func TestOpenLake_FileStore(t *testing.T) {
	store := objstore.NewFileStore(t.TempDir())
	seedLake(t, store)

	lake, err := OpenLake(context.Background(), store, []string{"plays", "songs"})
	require.NoError(t, err)
	defer func() { require.NoError(t, lake.Close()) }()
	assert.Empty(t, lake.mirror)

	checkLake(t, lake)
}

func TestOpenLake_MirrorsRemoteStore(t *testing.T) {
	store := objstore.NewMemoryStore("lake")
	seedLake(t, store)

	lake, err := OpenLake(context.Background(), store, []string{"plays", "songs"}, WithLocalThreads(2))
	require.NoError(t, err)
	mirror := lake.mirror
	assert.NotEmpty(t, mirror)

	checkLake(t, lake)

	require.NoError(t, lake.Close())
	assert.NoDirExists(t, mirror)
}

func TestRender(t *testing.T) {
	assert.Equal(t, "NULL", render(nil))
	assert.Equal(t, "abc", render([]byte("abc")))
	assert.Equal(t, "2018-11-15T00:41:21Z", render(time.Date(2018, 11, 15, 0, 41, 21, 0, time.UTC)))
	assert.Equal(t, "-0.12", render(-0.12))
	assert.Equal(t, "218.93179", render(218.93179))
	assert.Equal(t, "-118.2437134", render(-118.2437134))
	assert.Equal(t, "259.5", render(float32(259.5)))
	assert.Equal(t, "42", render(int64(42)))
}

func TestLocalDB_SharedDataBetweenConnections(t *testing.T) {
	ctx := context.Background()

	db, err := NewLocalDB(WithLocalPoolSize(2), WithLocalMemoryLimitMB(256))
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	conn1, release1, err := db.GetConnection(ctx)
	require.NoError(t, err)
	defer release1()
	_, err = conn1.ExecContext(ctx, `CREATE TABLE test_shared (id INTEGER, name VARCHAR)`)
	require.NoError(t, err)
	_, err = conn1.ExecContext(ctx, `INSERT INTO test_shared VALUES (1, 'Alice'), (2, 'Bob')`)
	require.NoError(t, err)

	conn2, release2, err := db.GetConnection(ctx)
	require.NoError(t, err)
	defer release2()
	var count int
	require.NoError(t, conn2.QueryRowContext(ctx, `SELECT count(*) FROM test_shared`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestWithLocalDatabasePathEmptyPanics(t *testing.T) {
	assert.Panics(t, func() { _, _ = NewLocalDB(WithLocalDatabasePath("")) })
}
