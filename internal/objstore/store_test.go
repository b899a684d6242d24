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

package objstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s Store, key string) string {
	t.Helper()
	rc, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(b)
}

func keys(infos []ObjectInfo) []string {
	out := make([]string, 0, len(infos))
	for _, i := range infos {
		out = append(out, i.Key)
	}
	return out
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "songs/year=2000/b.parquet", strings.NewReader("bb")))
	require.NoError(t, s.Put(ctx, "songs/year=1999/a.parquet", strings.NewReader("a")))
	require.NoError(t, s.Put(ctx, "songs_SUCCESS", strings.NewReader("")))
	require.NoError(t, s.Put(ctx, "users/part.parquet", strings.NewReader("u")))

	assert.Equal(t, "bb", readAll(t, s, "songs/year=2000/b.parquet"))

	got, err := s.List(ctx, "songs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"songs/year=1999/a.parquet", "songs/year=2000/b.parquet"}, keys(got))
	assert.Equal(t, int64(2), got[1].Size)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	require.NoError(t, s.Put(ctx, "users/part.parquet", strings.NewReader("replaced")))
	assert.Equal(t, "replaced", readAll(t, s, "users/part.parquet"))

	require.NoError(t, s.DeletePrefix(ctx, "songs/"))
	got, err = s.List(ctx, "songs/")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Get(ctx, "songs/year=1999/a.parquet")
	assert.ErrorIs(t, err, ErrNotFound)

	// Sibling with a shared name prefix survives.
	assert.Equal(t, "", readAll(t, s, "songs_SUCCESS"))

	require.NoError(t, s.DeletePrefix(ctx, "nothing/here/"))
}

func TestFileStore(t *testing.T) {
	exerciseStore(t, NewFileStore(t.TempDir()))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore("test"))
}

func TestFileStore_ListMissingRoot(t *testing.T) {
	s := NewFileStore(t.TempDir() + "/does-not-exist")
	got, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGlob(t *testing.T) {
	s := NewMemoryStore("glob")
	for _, k := range []string{
		"song_data/A/B/C/TRABC1.json",
		"song_data/A/B/D/TRABD1.json",
		"song_data/A/B/C/notes.txt",
		"song_data/B/A/A/TRBAA1.json",
		"log_data/2018/11/2018-11-15-events.json",
	} {
		s.PutString(k, "{}")
	}

	got, err := Glob(context.Background(), s, "song_data/A/B/*/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"song_data/A/B/C/TRABC1.json", "song_data/A/B/D/TRABD1.json"}, got)

	got, err = Glob(context.Background(), s, "song_data/*/*/*/*.json")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = Glob(context.Background(), s, "song_data/[")
	assert.Error(t, err)
}

func TestLiteralPrefix(t *testing.T) {
	assert.Equal(t, "song_data/A/", literalPrefix("song_data/A/*/*.json"))
	assert.Equal(t, "", literalPrefix("*/x.json"))
	assert.Equal(t, "a/b/", literalPrefix("a/b/c.json"))
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    Location
		wantErr bool
	}{
		{in: "s3://udacity-de-files/raw", want: Location{Scheme: "s3", Bucket: "udacity-de-files", Prefix: "raw"}},
		{in: "gs://bucket", want: Location{Scheme: "gs", Bucket: "bucket"}},
		{in: "azblob://lake/processed/", want: Location{Scheme: "az", Bucket: "lake", Prefix: "processed"}},
		{in: "mem://test", want: Location{Scheme: "mem", Bucket: "test"}},
		{in: "./out", want: Location{Scheme: "file", Prefix: "./out"}},
		{in: "file:///tmp/lake", want: Location{Scheme: "file", Prefix: "/tmp/lake"}},
		{in: "ftp://x/y", wantErr: true},
		{in: "s3:///nobucket", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocation(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinAndDirPrefix(t *testing.T) {
	assert.Equal(t, "a/b/c", Join("a/", "", "/b", "c/"))
	assert.Equal(t, "", Join("", ""))
	assert.Equal(t, "songs/", DirPrefix("/songs"))
	assert.Equal(t, "", DirPrefix(""))
}
