package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsBothModes(t *testing.T) {
	t.Parallel()

	dev, err := New(true)
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(-1), "development logger enables debug")

	prod, err := New(false)
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(-1), "production logger suppresses debug")
}
