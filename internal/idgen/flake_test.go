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

package idgen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSonyFlakeGenerator_NextID(t *testing.T) {
	gen := newFlakeGenerator(nil)

	id := gen.NextID()
	id2 := gen.NextID()
	assert.Positive(t, id)
	assert.Greater(t, id2, id, "NextID() did not return increasing id")
}

func TestSonyFlakeGenerator_MachineIDFailureFallsBack(t *testing.T) {
	gen := newFlakeGenerator(func() (uint16, error) {
		return 0, errors.New("no private ip address")
	})
	assert.NotNil(t, gen.sf)

	id := gen.NextID()
	id2 := gen.NextID()
	assert.Positive(t, id)
	assert.Greater(t, id2, id)
}

func TestDefaultFlakeGenerator_Shared(t *testing.T) {
	assert.Same(t, DefaultFlakeGenerator(), DefaultFlakeGenerator())
	assert.Positive(t, DefaultFlakeGenerator().NextID())
}
