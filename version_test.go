package pluginhost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_String(t *testing.T) {
	v := Version{Major: 1, Minor: 2, Patch: 3}
	assert.Equal(t, "1.2.3", v.String())
}

func TestParseVersion_Valid(t *testing.T) {
	v, err := ParseVersion("2.10.4")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 2, Minor: 10, Patch: 4}, v)
}

func TestParseVersion_Invalid(t *testing.T) {
	_, err := ParseVersion("2.10")
	assert.Error(t, err)

	_, err = ParseVersion("a.b.c")
	assert.Error(t, err)
}

func TestVersion_Compare(t *testing.T) {
	assert.Equal(t, 0, Version{1, 0, 0}.Compare(Version{1, 0, 0}))
	assert.Equal(t, -1, Version{1, 0, 0}.Compare(Version{1, 1, 0}))
	assert.Equal(t, 1, Version{2, 0, 0}.Compare(Version{1, 9, 9}))
}

func TestVersion_Less_AtLeast(t *testing.T) {
	low := Version{1, 0, 0}
	high := Version{1, 2, 0}

	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))

	assert.True(t, high.AtLeast(low))
	assert.False(t, low.AtLeast(high))
	assert.True(t, low.AtLeast(low))
}
