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


package cloudstorage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cardinalhq/isamples-export/internal/awsclient"
	"github.com/cardinalhq/isamples-export/internal/azureclient"
)

// CloudManagers creates provider managers on first use, so publishing to
// one provider never requires credentials for another.
type CloudManagers struct {
	mu    sync.Mutex
	aws   *awsclient.Manager
	azure *azureclient.Manager
}

var _ ClientProvider = (*CloudManagers)(nil)

func NewCloudManagers() *CloudManagers {
	return &CloudManagers{}
}

func (m *CloudManagers) awsManager(ctx context.Context) (*awsclient.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.aws == nil {
		mgr, err := awsclient.NewManager(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS manager: %w", err)
		}
		m.aws = mgr
	}
	return m.aws, nil
}

func (m *CloudManagers) azureManager() (*azureclient.Manager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.azure == nil {
		mgr, err := azureclient.NewManager()
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure manager: %w", err)
		}
		m.azure = mgr
	}
	return m.azure, nil
}

// NewClient creates a storage Client for the given target.
func (m *CloudManagers) NewClient(ctx context.Context, target Target) (Client, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	provider := strings.ToLower(target.Provider)
	switch provider {
	case ProviderAWS, ProviderGCP:
		mgr, err := m.awsManager(ctx)
		if err != nil {
			return nil, err
		}
		client, err := mgr.GetS3(ctx, s3Options(target)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		return &s3Client{client: client, provider: provider}, nil
	case ProviderAzure:
		mgr, err := m.azureManager()
		if err != nil {
			return nil, err
		}
		opts := []azureclient.BlobOption{azureclient.WithBlobStorageAccount(target.StorageAccount)}
		if target.Endpoint != "" {
			opts = append(opts, azureclient.WithBlobEndpoint(target.Endpoint))
		}
		client, err := mgr.GetBlob(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
		}
		return &azureClient{blobClient: client}, nil
	default:
		return NewFileClientProvider(target.BasePath).NewClient(ctx, target)
	}
}

func s3Options(target Target) []awsclient.S3Option {
	var opts []awsclient.S3Option
	if target.Role != "" {
		opts = append(opts, awsclient.WithRole(target.Role))
	}
	if target.Region != "" {
		opts = append(opts, awsclient.WithRegion(target.Region))
	}
	if target.Endpoint != "" {
		opts = append(opts, awsclient.WithEndpoint(target.Endpoint))
	}
	if target.PathStyle {
		opts = append(opts, awsclient.WithPathStyle())
	}
	if strings.EqualFold(target.Provider, ProviderGCP) {
		opts = append(opts, awsclient.WithGCPProvider())
	}
	return opts
}
