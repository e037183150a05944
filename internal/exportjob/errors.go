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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cardinalhq/isamples-export/internal/exportapi"
)

// ConfigurationError is a problem with how a job was set up. It is never
// retried.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}
	return "configuration error: " + e.Message
}

func (e ConfigurationError) Unwrap() error {
	return e.Err
}

// JobFailedError means the export service reported the job as failed.
// Payload is the status response as received.
type JobFailedError struct {
	JobID   string
	Payload json.RawMessage
}

func (e JobFailedError) Error() string {
	if len(e.Payload) == 0 {
		return fmt.Sprintf("export job %s failed", e.JobID)
	}
	return fmt.Sprintf("export job %s failed: %s", e.JobID, string(e.Payload))
}

// RetriesExhaustedError is returned when a run hits more errors than its
// budget allows.
type RetriesExhaustedError struct {
	Errors int
	Last   error
}

func (e RetriesExhaustedError) Error() string {
	return fmt.Sprintf("export abandoned after %d errors: %v", e.Errors, e.Last)
}

func (e RetriesExhaustedError) Unwrap() error {
	return e.Last
}

// IsConfigurationError checks if err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce)
}

// IsJobFailed checks if err is, or wraps, a JobFailedError.
func IsJobFailed(err error) bool {
	var je JobFailedError
	return errors.As(err, &je)
}

// IsRetriesExhausted checks if err is, or wraps, a RetriesExhaustedError.
func IsRetriesExhausted(err error) bool {
	var re RetriesExhaustedError
	return errors.As(err, &re)
}

// errorCategory labels err for logs and metrics.
func errorCategory(err error) string {
	switch {
	case IsConfigurationError(err):
		return "configuration"
	case IsJobFailed(err):
		return "job_failed"
	case exportapi.IsProtocolError(err):
		return "protocol"
	default:
		return "transient"
	}
}
