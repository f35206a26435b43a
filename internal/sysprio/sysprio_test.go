//go:build linux || darwin
// +build linux darwin

package sysprio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetZeroIsNoop(t *testing.T) {
	before, err := Get()
	require.NoError(t, err)
	require.NoError(t, Set(0))
	after, err := Get()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSetRejectsOutOfRange(t *testing.T) {
	assert.Error(t, Set(-21))
	assert.Error(t, Set(20))
}
