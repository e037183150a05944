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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw      string
		expected Status
		running  bool
	}{
		{"created", StatusCreated, true},
		{"started", StatusStarted, true},
		{"completed", StatusCompleted, false},
		{"error", StatusError, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s, err := ParseStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
			assert.Equal(t, tt.raw, s.String())
			assert.Equal(t, tt.running, s.Running())
		})
	}
}

func TestParseStatusUnknown(t *testing.T) {
	for _, raw := range []string{"", "COMPLETED", "done", "started ", "pending"} {
		_, err := ParseStatus(raw)
		assert.Error(t, err, "expected %q to be rejected", raw)
	}
}

func TestOriginalQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"plain", `{"q":"material:rock"}`, "material:rock", false},
		{"extra keys", `{"q":"*:*","fq":"source:SESAR"}`, "*:*", false},
		{"empty", "", "", true},
		{"not json", "material:rock", "", true},
		{"missing q", `{"fq":"x"}`, "", true},
		{"non-string q", `{"q":5}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &StatusResponse{Status: "completed", Query: tt.query}
			got, err := r.OriginalQuery()
			if tt.wantErr {
				assert.True(t, IsProtocolError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
