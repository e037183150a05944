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
	"errors"
	"fmt"
)

// ProtocolError reports a response from the export service that does not
// follow its contract: an unexpected HTTP status or a malformed body.
type ProtocolError struct {
	Op         string
	StatusCode int
	Body       string
	Message    string
	Err        error
}

func (e *ProtocolError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unexpected response"
	}
	s := fmt.Sprintf("export %s: %s", e.Op, msg)
	if e.StatusCode != 0 {
		s += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Body != "" {
		s += ": " + e.Body
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError checks if err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

func isExpectedStatusCode(code int) bool {
	return code >= 200 && code < 300
}
