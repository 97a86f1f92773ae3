package history

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	f := Open(path, 10)

	require.NoError(t, f.Append("1+1"))
	require.NoError(t, f.Append("await fetch(u)"))

	lines, err := Open(path, 10).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"1+1", "await fetch(u)"}, lines)
}

func TestLoadMissingFile(t *testing.T) {
	lines, err := Open(filepath.Join(t.TempDir(), "nope"), 10).Load()
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestAppendSuppressesBlankAndDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	f := Open(path, 10)

	require.NoError(t, f.Append("x"))
	require.NoError(t, f.Append("  "))
	require.NoError(t, f.Append("x"))
	require.NoError(t, f.Append("y"))

	lines, err := Open(path, 10).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, lines)
}

func TestLoadHonorsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	f := Open(path, 100)
	for _, line := range []string{"a", "b", "c", "d"} {
		require.NoError(t, f.Append(line))
	}

	lines, err := Open(path, 2).Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, lines)
}

func TestDisabledHistory(t *testing.T) {
	f := Open("", 10)
	assert.NoError(t, f.Append("x"))
	lines, err := f.Load()
	assert.NoError(t, err)
	assert.Empty(t, lines)
}
