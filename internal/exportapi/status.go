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

package exportapi

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a job as reported by the export service.
type Status string

const (
	StatusCreated   Status = "created"
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// ParseStatus maps a raw status string onto the closed set of known states.
// Unknown strings are an error; there is no fallback value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusCreated, StatusStarted, StatusCompleted, StatusError:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("unknown export job status %q", raw)
	}
}

func (s Status) String() string {
	return string(s)
}

// Running reports whether the job has not yet reached a terminal state.
func (s Status) Running() bool {
	return s == StatusCreated || s == StatusStarted
}

// StatusResponse is the decoded body of a status call.
type StatusResponse struct {
	Status string `json:"status"`
	Query  string `json:"query"`

	// Raw is the undecoded response body, kept for diagnostics.
	Raw json.RawMessage `json:"-"`
}

// ParsedStatus parses the Status field.
func (r *StatusResponse) ParsedStatus() (Status, error) {
	return ParseStatus(r.Status)
}

// OriginalQuery decodes the JSON-encoded query object the service echoes
// back and returns the value stored under "q".
func (r *StatusResponse) OriginalQuery() (string, error) {
	if r.Query == "" {
		return "", &ProtocolError{Op: "status", Message: "status response has no query"}
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(r.Query), &params); err != nil {
		return "", &ProtocolError{Op: "status", Message: "query is not a JSON object", Err: err}
	}
	q, ok := params["q"].(string)
	if !ok {
		return "", &ProtocolError{Op: "status", Message: "query object has no string \"q\" key"}
	}
	return q, nil
}
