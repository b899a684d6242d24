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
	"fmt"
	"net/url"
	"strings"

	"github.com/cardinalhq/songlake/internal/awsclient"
	"github.com/cardinalhq/songlake/internal/azureclient"
)

// gcsInteropEndpoint is Google Cloud Storage's S3-compatible XML API.
const gcsInteropEndpoint = "https://storage.googleapis.com"

// Options carries the provider settings Open needs for remote locations.
type Options struct {
	S3            awsclient.Settings
	AzureAccount  string
	AzureEndpoint string
}

// Location is a parsed storage root.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocation splits a location such as "s3://bucket/raw" or "./out".
// Bare paths and file:// URLs get the "file" scheme with the path in Prefix.
func ParseLocation(location string) (Location, error) {
	if location == "" {
		return Location{}, fmt.Errorf("empty storage location")
	}
	if !strings.Contains(location, "://") {
		return Location{Scheme: "file", Prefix: location}, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", location, err)
	}
	switch u.Scheme {
	case "file":
		return Location{Scheme: "file", Prefix: u.Host + u.Path}, nil
	case "s3", "gs", "az", "azblob", "mem":
		if u.Host == "" {
			return Location{}, fmt.Errorf("location %q has no bucket or container", location)
		}
		scheme := u.Scheme
		if scheme == "azblob" {
			scheme = "az"
		}
		return Location{Scheme: scheme, Bucket: u.Host, Prefix: strings.Trim(u.Path, "/")}, nil
	default:
		return Location{}, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

// Open returns a Store rooted at location.
func Open(ctx context.Context, location string, opts Options) (Store, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "file":
		return NewFileStore(loc.Prefix), nil
	case "mem":
		return NewMemoryStore(Join(loc.Bucket, loc.Prefix)), nil
	case "s3", "gs":
		settings := opts.S3
		if loc.Scheme == "gs" {
			settings.GCP = true
			if settings.Endpoint == "" {
				settings.Endpoint = gcsInteropEndpoint
			}
		}
		mgr, err := awsclient.NewManager(ctx, awsclient.WithAssumeRoleSessionName("songlake"))
		if err != nil {
			return nil, err
		}
		client, err := mgr.GetS3(ctx, settings)
		if err != nil {
			return nil, err
		}
		return NewS3Store(client.Client, loc.Scheme, loc.Bucket, loc.Prefix), nil
	case "az":
		mgr, err := azureclient.NewManager(ctx)
		if err != nil {
			return nil, err
		}
		account := opts.AzureAccount
		if account == "" {
			return nil, fmt.Errorf("azure storage account is required for %s", location)
		}
		blob, err := mgr.GetBlob(ctx,
			azureclient.WithBlobStorageAccount(account),
			azureclient.WithBlobEndpoint(opts.AzureEndpoint))
		if err != nil {
			return nil, err
		}
		return NewAzureStore(blob.Client, account, loc.Bucket, loc.Prefix), nil
	}
	return nil, fmt.Errorf("unsupported storage scheme %q", loc.Scheme)
}
