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

package idgen

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlakeGeneratorIncreases(t *testing.T) {
	gen, err := newFlakeGenerator(func() (uint16, error) { return 7, nil })
	require.NoError(t, err)

	id := gen.NextID()
	id2 := gen.NextID()
	assert.Greater(t, id2, id)
}

func TestFlakeGeneratorFallsBackWhenMachineIDFails(t *testing.T) {
	gen, err := newFlakeGenerator(func() (uint16, error) {
		return 0, errors.New("no private ip address")
	})
	require.NoError(t, err)
	require.NotNil(t, gen)

	id := gen.NextID()
	assert.Positive(t, id)
	assert.Greater(t, gen.NextID(), id)
}

func TestNewFlakeGeneratorNeverFailsOnHostAddressing(t *testing.T) {
	gen, err := NewFlakeGenerator()
	require.NoError(t, err)
	assert.Positive(t, gen.NextID())
}

func TestHostnameMachineIDIsStable(t *testing.T) {
	name, err := os.Hostname()
	if err != nil || name == "" {
		t.Skip("hostname unavailable")
	}
	a, err := hostnameMachineID()
	require.NoError(t, err)
	b, err := hostnameMachineID()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
