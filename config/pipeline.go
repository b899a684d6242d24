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

package config

import (
	"fmt"
)

const (
	DefaultInput  = "s3://udacity-de-files/raw"
	DefaultOutput = "s3://udacity-de-files/processed"
)

// PipelineConfig selects the input and output roots and tunes a run.
type PipelineConfig struct {
	Input          string  `mapstructure:"input"`
	Output         string  `mapstructure:"output"`
	SongPattern    string  `mapstructure:"song_pattern"`    // glob under Input
	LogPrefix      string  `mapstructure:"log_prefix"`      // directory under Input
	Workers        int     `mapstructure:"workers"`         // 0 = GOMAXPROCS
	MatchTolerance float64 `mapstructure:"match_tolerance"` // seconds; 0 = exact match
	TmpDir         string  `mapstructure:"tmp_dir"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Input:       DefaultInput,
		Output:      DefaultOutput,
		SongPattern: "songs/A/*/*/*.json",
		LogPrefix:   "logs",
	}
}

// Validate rejects settings no run could succeed with.
func (c PipelineConfig) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("pipeline.input is required")
	}
	if c.Output == "" {
		return fmt.Errorf("pipeline.output is required")
	}
	if c.Input == c.Output {
		return fmt.Errorf("pipeline.input and pipeline.output must differ")
	}
	if c.Workers < 0 {
		return fmt.Errorf("pipeline.workers must not be negative")
	}
	if c.MatchTolerance < 0 {
		return fmt.Errorf("pipeline.match_tolerance must not be negative")
	}
	return nil
}
