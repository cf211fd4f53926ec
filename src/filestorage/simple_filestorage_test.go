package filestorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMakesDirectories(t *testing.T) {
	dir := t.TempDir()
	s := NewSimpleFileStorage(dir)

	w, err := s.Create("sub/deeper/b.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	content, err := os.ReadFile(filepath.Join(dir, "sub", "deeper", "b.bin"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestCreateOverwrites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.bin"), []byte("old content"), 0o644))
	s := NewSimpleFileStorage(dir)

	w, err := s.Create("a.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("new"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	content, err := os.ReadFile(filepath.Join(dir, "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestCreateFailsWhenParentIsAFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub"), []byte("x"), 0o644))
	s := NewSimpleFileStorage(dir)

	_, err := s.Create("sub/b.bin")
	assert.Error(t, err)
}
