package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAferoStore_Unit(t *testing.T) {
	memFs := afero.NewMemMapFs()
	store := NewAferoStore(memFs)
	ctx := context.Background()

	filePath := "packs/custom/phrases.yaml"
	fileContent := "version: 1\n"

	t.Run("Save", func(t *testing.T) {
		n, err := store.Save(ctx, filePath, strings.NewReader(fileContent))
		require.NoError(t, err)
		assert.Equal(t, int64(len(fileContent)), n)

		readBytes, err := afero.ReadFile(memFs, filePath)
		require.NoError(t, err)
		assert.Equal(t, fileContent, string(readBytes))

		entries, err := afero.ReadDir(memFs, "packs/custom")
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary file is renamed away")
	})

	t.Run("Save overwrites", func(t *testing.T) {
		_, err := store.Save(ctx, filePath, strings.NewReader("version: 2\n"))
		require.NoError(t, err)

		readBytes, err := afero.ReadFile(memFs, filePath)
		require.NoError(t, err)
		assert.Equal(t, "version: 2\n", string(readBytes))
	})

	t.Run("Open", func(t *testing.T) {
		file, err := store.Open(ctx, filePath)
		require.NoError(t, err)
		defer file.Close()

		readBytes, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "version: 2\n", string(readBytes))
	})

	t.Run("Exists and Delete", func(t *testing.T) {
		ok, err := store.Exists(ctx, filePath)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, store.Delete(ctx, filePath))

		ok, err = store.Exists(ctx, filePath)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Open non-existent file", func(t *testing.T) {
		_, err := store.Open(ctx, "path/to/nothing.txt")
		assert.Error(t, err)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestAferoStore_FailedWriteLeavesNoFile(t *testing.T) {
	memFs := afero.NewMemMapFs()
	store := NewAferoStore(memFs)

	_, err := store.Save(context.Background(), "a/b.yaml", failingReader{})
	require.Error(t, err)

	entries, err := afero.ReadDir(memFs, "a")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAferoStore_CancelledContext(t *testing.T) {
	store := NewAferoStore(afero.NewMemMapFs())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "x.yaml", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
