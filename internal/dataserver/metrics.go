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

package dataserver

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var dataRequests metric.Int64Counter

func init() {
	meter := otel.Meter("github.com/cardinalhq/isamples-export/internal/dataserver")

	var err error
	dataRequests, err = meter.Int64Counter(
		"isamples.dataserver.requests",
		metric.WithDescription("Requests for files under /data/, by result"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create requests counter: %w", err))
	}
}
