package receipt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_Load(t *testing.T) {
	dir := t.TempDir()

	t.Run("existing receipt", func(t *testing.T) {
		path := filepath.Join(dir, "receipt.bin")
		require.NoError(t, os.WriteFile(path, []byte("blob"), 0o600))

		data, err := NewFile(path).Load()
		require.NoError(t, err)
		assert.Equal(t, []byte("blob"), data)
	})

	t.Run("missing receipt", func(t *testing.T) {
		_, err := NewFile(filepath.Join(dir, "missing.bin")).Load()
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty receipt", func(t *testing.T) {
		path := filepath.Join(dir, "empty.bin")
		require.NoError(t, os.WriteFile(path, nil, 0o600))

		_, err := NewFile(path).Load()
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("path is a directory", func(t *testing.T) {
		_, err := NewFile(dir).Load()
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}
