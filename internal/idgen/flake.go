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
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sony/sonyflake"
)

// DefaultFlakeGenerator is built on first use. It never fails: hosts
// without a private IPv4 address get a machine id derived from the
// hostname and pid.
var DefaultFlakeGenerator = sync.OnceValue(func() *SonyFlakeGenerator {
	return newFlakeGenerator(nil)
})

type SonyFlakeGenerator struct {
	sf *sonyflake.Sonyflake
}

var flakeEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// newFlakeGenerator uses machineID when set, else sonyflake's private
// IPv4 default, and falls back to hostMachineID if that fails.
func newFlakeGenerator(machineID func() (uint16, error)) *SonyFlakeGenerator {
	sf, err := newSonyflake(machineID)
	if err != nil {
		sf, err = newSonyflake(hostMachineID)
	}
	if err != nil {
		return &SonyFlakeGenerator{}
	}
	return &SonyFlakeGenerator{sf: sf}
}

func newSonyflake(machineID func() (uint16, error)) (*sonyflake.Sonyflake, error) {
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: flakeEpoch,
		MachineID: machineID,
	})
	if err != nil {
		return nil, err
	}
	if sf == nil {
		return nil, errors.New("failed to create Sonyflake instance")
	}
	return sf, nil
}

func hostMachineID() (uint16, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return uint16(xxhash.Sum64String(fmt.Sprintf("%s/%d", host, os.Getpid()))), nil
}

// NextID returns a positive int64 that'll increase roughly in time order.
func (sf *SonyFlakeGenerator) NextID() int64 {
	if sf.sf == nil {
		return rand.Int64()
	}
	v, err := sf.sf.NextID()
	if err != nil {
		return rand.Int64()
	}
	return int64(v)
}
