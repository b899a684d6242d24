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

package azureclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Manager hands out blob clients that share one DefaultAzureCredential.
type Manager struct {
	baseCred *azidentity.DefaultAzureCredential

	sync.RWMutex
	blobClients map[blobClientKey]*BlobClient
	tracer      trace.Tracer
}

type BlobClient struct {
	Client *azblob.Client
	Tracer trace.Tracer
}

// NewManager loads Azure credentials from the environment, managed identity
// or the az CLI.
func NewManager(_ context.Context) (*Manager, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("loading Azure credentials: %w", err)
	}

	return &Manager{
		baseCred:    cred,
		blobClients: make(map[blobClientKey]*BlobClient),
		tracer:      otel.Tracer("github.com/cardinalhq/songlake/internal/azureclient"),
	}, nil
}

type blobConfig struct {
	StorageAccount string
	Endpoint       string
}

type BlobOption func(*blobConfig)

func WithBlobStorageAccount(storageAccount string) BlobOption {
	return func(c *blobConfig) {
		c.StorageAccount = storageAccount
	}
}

// WithBlobEndpoint overrides the service URL, eg. for Azurite.
func WithBlobEndpoint(endpoint string) BlobOption {
	return func(c *blobConfig) {
		c.Endpoint = endpoint
	}
}

type blobClientKey struct {
	StorageAccount string
	Endpoint       string
}

// BlobEndpoint returns the public service URL for an account.
func BlobEndpoint(account string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/", account)
}

func (m *Manager) GetBlob(_ context.Context, opts ...BlobOption) (*BlobClient, error) {
	bc := blobConfig{}
	for _, o := range opts {
		o(&bc)
	}

	if bc.StorageAccount == "" {
		return nil, fmt.Errorf("storage account is required")
	}
	if bc.Endpoint == "" {
		bc.Endpoint = BlobEndpoint(bc.StorageAccount)
	}
	if !strings.HasSuffix(bc.Endpoint, "/") {
		bc.Endpoint += "/"
	}

	key := blobClientKey{StorageAccount: bc.StorageAccount, Endpoint: bc.Endpoint}
	m.RLock()
	client, ok := m.blobClients[key]
	m.RUnlock()
	if ok {
		return client, nil
	}

	m.Lock()
	defer m.Unlock()
	if client, ok = m.blobClients[key]; ok {
		return client, nil
	}
	blobClient, err := azblob.NewClient(bc.Endpoint, m.baseCred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	client = &BlobClient{Client: blobClient, Tracer: m.tracer}
	m.blobClients[key] = client
	return client, nil
}
