package local

import (
	"path/filepath"
	"testing"

	"github.com/UkralStul/threaducate/internal/storage"
	"github.com/UkralStul/threaducate/internal/storage/storagetest"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		store, err := New(filepath.Join(t.TempDir(), "threaducate.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
