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
	"os"

	"github.com/cardinalhq/isamples-export/internal/duckdbx"
	"github.com/cardinalhq/isamples-export/internal/helpers"
)

// DuckDBConfig holds DuckDB-specific configuration
type DuckDBConfig struct {
	MemoryLimit          int64  `mapstructure:"memory_limit"`            // MB, 0 = unlimited
	TempDirectory        string `mapstructure:"temp_directory"`          // spill directory
	MaxTempDirectorySize string `mapstructure:"max_temp_directory_size"` // e.g. "40GB"
	Threads              int    `mapstructure:"threads"`                 // 0 = runtime default
}

// DefaultDuckDBConfig returns default DuckDB configuration
func DefaultDuckDBConfig() DuckDBConfig {
	return DuckDBConfig{}
}

// GetTempDirectory returns the configured temp directory, falling back to
// TMPDIR and then /tmp.
func (c *DuckDBConfig) GetTempDirectory() string {
	if c.TempDirectory != "" {
		return c.TempDirectory
	}
	if tmpdir := os.Getenv("TMPDIR"); tmpdir != "" {
		return tmpdir
	}
	return "/tmp"
}

// GetMaxTempDirectorySize returns the configured cap, defaulting to 90% of
// the temp directory's volume.
func (c *DuckDBConfig) GetMaxTempDirectorySize() string {
	if c.MaxTempDirectorySize != "" {
		return c.MaxTempDirectorySize
	}
	if usage, err := helpers.DiskUsage(c.GetTempDirectory()); err == nil {
		maxSizeGB := uint64(float64(usage.TotalBytes) * 0.9 / (1024 * 1024 * 1024))
		if maxSizeGB > 0 {
			return fmt.Sprintf("%dGB", maxSizeGB)
		}
	}
	return ""
}

// LocalDBOptions translates the configuration into duckdbx options.
func (c *DuckDBConfig) LocalDBOptions() []duckdbx.LocalDBOption {
	return []duckdbx.LocalDBOption{
		duckdbx.WithLocalMemoryLimitMB(c.MemoryLimit),
		duckdbx.WithLocalTempDirectory(c.GetTempDirectory()),
		duckdbx.WithLocalMaxTempDirectorySize(c.GetMaxTempDirectorySize()),
		duckdbx.WithLocalThreads(c.Threads),
	}
}
