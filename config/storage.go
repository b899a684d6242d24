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
	"github.com/cardinalhq/songlake/internal/awsclient"
	"github.com/cardinalhq/songlake/internal/objstore"
)

// S3Config applies to s3:// and gs:// locations.
type S3Config struct {
	Region      string `mapstructure:"region"`
	Endpoint    string `mapstructure:"endpoint"` // MinIO, Ceph, ...
	PathStyle   bool   `mapstructure:"path_style"`
	RoleARN     string `mapstructure:"role_arn"`
	InsecureTLS bool   `mapstructure:"insecure_tls"`
}

func DefaultS3Config() S3Config {
	return S3Config{Region: "us-west-2"}
}

// AzureConfig applies to azblob:// locations.
type AzureConfig struct {
	Account  string `mapstructure:"account"`
	Endpoint string `mapstructure:"endpoint"`
}

// StoreOptions converts the storage sections into objstore options.
func (c *Config) StoreOptions() objstore.Options {
	return objstore.Options{
		S3: awsclient.Settings{
			Region:      c.S3.Region,
			Endpoint:    c.S3.Endpoint,
			RoleARN:     c.S3.RoleARN,
			PathStyle:   c.S3.PathStyle,
			InsecureTLS: c.S3.InsecureTLS,
		},
		AzureAccount:  c.Azure.Account,
		AzureEndpoint: c.Azure.Endpoint,
	}
}
