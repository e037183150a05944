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
)

// Supported values of Target.Provider.
const (
	ProviderAWS   = "aws"
	ProviderGCP   = "gcp"
	ProviderAzure = "azure"
	ProviderFile  = "file"
)

// Client uploads local files to an object store.
type Client interface {
	// UploadObject copies sourceFilename to bucket/key with the given content type.
	UploadObject(ctx context.Context, bucket, key, sourceFilename, contentType string) error
}

// ClientProvider builds a Client for a publishing target.
type ClientProvider interface {
	NewClient(ctx context.Context, target Target) (Client, error)
}

// Target names where an export tree is published.
type Target struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`

	// S3 API (aws, gcp)
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
	Role      string `mapstructure:"role"`

	// Azure Blob; Endpoint applies here too.
	StorageAccount string `mapstructure:"storage_account"`

	// BasePath is the root directory of the file provider.
	BasePath string `mapstructure:"base_path"`
}

// Validate checks that the target names a known provider and a bucket.
func (t Target) Validate() error {
	switch strings.ToLower(t.Provider) {
	case ProviderAWS, ProviderGCP:
	case ProviderAzure:
		if t.StorageAccount == "" {
			return fmt.Errorf("publish: azure requires a storage account")
		}
	case ProviderFile:
		if t.BasePath == "" {
			return fmt.Errorf("publish: file provider requires a base path")
		}
	case "":
		return fmt.Errorf("publish: provider is required")
	default:
		return fmt.Errorf("publish: unsupported cloud provider: %s", t.Provider)
	}
	if t.Bucket == "" {
		return fmt.Errorf("publish: bucket is required")
	}
	return nil
}
