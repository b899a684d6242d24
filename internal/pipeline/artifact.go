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
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cardinalhq/songlake/internal/engine"
	"github.com/cardinalhq/songlake/internal/model"
	"github.com/cardinalhq/songlake/internal/parquetwriter"
)

// TableRef points at a table a stage has completed.
type TableRef struct {
	Name string
	Rows int64
}

func refOf(res parquetwriter.Result) TableRef {
	return TableRef{Name: res.Table, Rows: res.Rows}
}

// DimensionArtifact is what the song stage hands to the log stage: the
// songs and artists tables, already durable in the output store.
type DimensionArtifact struct {
	RunID   string
	Songs   TableRef
	Artists TableRef
}

// ExistingArtifact refers to songs and artists tables written by an earlier
// run, for running the log stage on its own.
func ExistingArtifact() DimensionArtifact {
	return DimensionArtifact{
		Songs:   TableRef{Name: model.TableSongs, Rows: -1},
		Artists: TableRef{Name: model.TableArtists, Rows: -1},
	}
}

// Load reads both dimensions back from the session's output store. It fails
// with parquetwriter.ErrIncompleteTable if either table was not completed.
func (a DimensionArtifact) Load(ctx context.Context, sess *engine.Session) ([]model.SongDim, []model.ArtistDim, error) {
	var (
		songs   []model.SongDim
		artists []model.ArtistDim
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		songs, err = engine.ReadTable[model.SongDim](gctx, sess, a.Songs.Name)
		if err != nil {
			return fmt.Errorf("loading %s: %w", a.Songs.Name, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		artists, err = engine.ReadTable[model.ArtistDim](gctx, sess, a.Artists.Name)
		if err != nil {
			return fmt.Errorf("loading %s: %w", a.Artists.Name, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if a.Songs.Rows >= 0 && int64(len(songs)) != a.Songs.Rows {
		return nil, nil, fmt.Errorf("%s: expected %d rows, read %d", a.Songs.Name, a.Songs.Rows, len(songs))
	}
	if a.Artists.Rows >= 0 && int64(len(artists)) != a.Artists.Rows {
		return nil, nil, fmt.Errorf("%s: expected %d rows, read %d", a.Artists.Name, a.Artists.Rows, len(artists))
	}
	return songs, artists, nil
}
