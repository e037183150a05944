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

package exportjob

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	runCounter      metric.Int64Counter
	pollCounter     metric.Int64Counter
	runErrors       metric.Int64Counter
	recordsExported metric.Int64Counter
	bytesDownloaded metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/isamples-export/internal/exportjob")

	var err error
	runCounter, err = meter.Int64Counter(
		"isamples.export.runs",
		metric.WithDescription("Number of export runs, by result"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create runs counter: %w", err))
	}

	pollCounter, err = meter.Int64Counter(
		"isamples.export.polls",
		metric.WithDescription("Number of status polls, by reported status"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create polls counter: %w", err))
	}

	runErrors, err = meter.Int64Counter(
		"isamples.export.errors",
		metric.WithDescription("Errors counted against a run's retry budget, by category"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create errors counter: %w", err))
	}

	recordsExported, err = meter.Int64Counter(
		"isamples.export.records",
		metric.WithDescription("Records in completed downloads"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create records counter: %w", err))
	}

	bytesDownloaded, err = meter.Int64Counter(
		"isamples.export.download.bytes",
		metric.WithDescription("Bytes downloaded from the export service"),
		metric.WithUnit("By"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create download.bytes counter: %w", err))
	}
}
