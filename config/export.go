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
	"time"

	"github.com/cardinalhq/isamples-export/internal/exportapi"
	"github.com/cardinalhq/isamples-export/internal/exportjob"
)

// ExportConfig holds settings for talking to the export service and
// running jobs against it.
type ExportConfig struct {
	ServerURL      string        `mapstructure:"server_url"`
	Token          string        `mapstructure:"token"`
	Format         string        `mapstructure:"format"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	MaxErrors      int           `mapstructure:"max_errors"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		ServerURL:      exportapi.DefaultBaseURL,
		Format:         exportjob.FormatJSONL.String(),
		PollInterval:   exportjob.DefaultPollInterval,
		MaxErrors:      exportjob.DefaultMaxErrors,
		ChunkSize:      exportjob.DefaultChunkSize,
		RequestTimeout: exportapi.DefaultTimeout,
	}
}
