package bytecode

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScriptFile(t *testing.T, path string) {
	t.Helper()
	bc, err := Compile(simpleScript())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bc.Raw(), 0o600))
}

func TestLoadFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sievebc")
	writeScriptFile(t, path)

	bc, err := LoadFile(path)
	require.NoError(t, err)
	assert.Greater(t, bc.Len(), 0)
}

func TestIncludeCacheReturnsSameInstanceForSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.sievebc")
	writeScriptFile(t, path)

	ic := NewIncludeCache()
	first, err := ic.Load(path)
	require.NoError(t, err)
	second, err := ic.Load(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestIncludeCacheDistinctPathsDistinctEntries(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.sievebc")
	pathB := filepath.Join(dir, "b.sievebc")
	writeScriptFile(t, pathA)
	writeScriptFile(t, pathB)

	ic := NewIncludeCache()
	a, err := ic.Load(pathA)
	require.NoError(t, err)
	b, err := ic.Load(pathB)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}

func TestIncludeCacheMissingFileErrors(t *testing.T) {
	ic := NewIncludeCache()
	_, err := ic.Load(filepath.Join(t.TempDir(), "nope.sievebc"))
	assert.Error(t, err)
}

func TestReaderCloneIsIndependent(t *testing.T) {
	bc, err := Compile(simpleScript())
	require.NoError(t, err)

	r := bc.NewReader()
	_, err = r.ReadOp()
	require.NoError(t, err)

	clone := r.Clone()
	_, err = clone.ReadBool()
	require.NoError(t, err)

	assert.NotEqual(t, r.Pos(), clone.Pos())
	assert.Equal(t, r.Pos()+cellBytes, clone.Pos())
}
