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
	"io"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/hashicorp/go-multierror"
)

// AzureStore implements Store on an Azure Blob container under a prefix.
type AzureStore struct {
	client    *azblob.Client
	account   string
	container string
	prefix    string
}

var _ Store = (*AzureStore)(nil)

func NewAzureStore(client *azblob.Client, account, container, prefix string) *AzureStore {
	return &AzureStore{
		client:    client,
		account:   account,
		container: container,
		prefix:    strings.Trim(prefix, "/"),
	}
}

func (s *AzureStore) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *AzureStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	full := s.fullKey(prefix)
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{
		Prefix: to.Ptr(full),
	})

	var out []ObjectInfo
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.URL(prefix), err)
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			info := ObjectInfo{Key: strings.TrimPrefix(*item.Name, DirPrefix(s.prefix))}
			if item.Properties != nil && item.Properties.ContentLength != nil {
				info.Size = *item.Properties.ContentLength
			}
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *AzureStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, s.fullKey(key), nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.URL(key))
		}
		return nil, fmt.Errorf("get %s: %w", s.URL(key), err)
	}
	recordGet(ctx, "azblob")
	return resp.Body, nil
}

func (s *AzureStore) Put(ctx context.Context, key string, r io.Reader) error {
	counted := &countingReader{r: r}
	if _, err := s.client.UploadStream(ctx, s.container, s.fullKey(key), counted, nil); err != nil {
		return fmt.Errorf("put %s: %w", s.URL(key), err)
	}
	recordPut(ctx, "azblob", counted.n)
	return nil
}

func (s *AzureStore) DeletePrefix(ctx context.Context, prefix string) error {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, o := range objects {
		if _, err := s.client.DeleteBlob(ctx, s.container, s.fullKey(o.Key), nil); err != nil {
			if bloberror.HasCode(err, bloberror.BlobNotFound) {
				continue
			}
			result = multierror.Append(result, fmt.Errorf("delete %s: %w", o.Key, err))
		}
	}
	return result.ErrorOrNil()
}

// URL uses the az:// form DuckDB's azure extension reads.
func (s *AzureStore) URL(key string) string {
	return "az://" + Join(s.container, s.prefix, key)
}
