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

package duckdbx

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	memoryUsageGauge  metric.Int64Gauge
	memoryLimitGauge  metric.Int64Gauge
	databaseSizeGauge metric.Int64Gauge
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/isamples-export/internal/duckdbx")

	var err error
	memoryUsageGauge, err = meter.Int64Gauge("isamples.duckdb.memory.memory_usage",
		metric.WithDescription("DuckDB memory usage"),
		metric.WithUnit("By"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create memory_usage gauge: %w", err))
	}

	memoryLimitGauge, err = meter.Int64Gauge("isamples.duckdb.memory.memory_limit",
		metric.WithDescription("DuckDB memory limit"),
		metric.WithUnit("By"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create memory_limit gauge: %w", err))
	}

	databaseSizeGauge, err = meter.Int64Gauge("isamples.duckdb.memory.database_size",
		metric.WithDescription("DuckDB database size"),
		metric.WithUnit("By"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create database_size gauge: %w", err))
	}
}

// RecordMemoryStats samples PRAGMA database_size once and records it. Errors
// are logged, not returned.
func (l *LocalDB) RecordMemoryStats(ctx context.Context) {
	conn, release, err := l.GetConnection(ctx)
	if err != nil {
		slog.Warn("duckdbx: no connection for memory stats", slog.Any("error", err))
		return
	}
	defer release()

	stats, err := GetDuckDBMemoryStats(ctx, conn)
	if err != nil {
		slog.Warn("duckdbx: failed to read memory stats", slog.Any("error", err))
		return
	}
	for _, stat := range stats {
		attr := metric.WithAttributes(attribute.String("database_name", stat.DatabaseName))
		memoryUsageGauge.Record(ctx, stat.MemoryUsage, attr)
		memoryLimitGauge.Record(ctx, stat.MemoryLimit, attr)
		databaseSizeGauge.Record(ctx, stat.DatabaseSize, attr)
		slog.Debug("duckdbx: memory",
			slog.String("database", stat.DatabaseName),
			slog.Int64("memoryUsage", stat.MemoryUsage),
			slog.Int64("memoryLimit", stat.MemoryLimit))
	}
}
