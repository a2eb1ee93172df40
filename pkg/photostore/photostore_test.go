package photostore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	requestID := uuid.New()
	ref, err := store.Save(requestID, strings.NewReader("photo-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, ref, requestID.String())
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, ref))
	require.NoError(t, err)
	assert.Equal(t, "photo-bytes", string(data))
}

func TestDiskStoreExtensions(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	png, err := store.Save(uuid.New(), strings.NewReader("x"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(png, ".png"))

	webp, err := store.Save(uuid.New(), strings.NewReader("x"), "image/webp")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(webp, ".webp"))

	// Unknown content types fall back to jpg
	other, err := store.Save(uuid.New(), strings.NewReader("x"), "application/octet-stream")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(other, ".jpg"))
}

func TestDiskStoreDistinctRefs(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	requestID := uuid.New()
	first, err := store.Save(requestID, strings.NewReader("a"), "image/jpeg")
	require.NoError(t, err)
	second, err := store.Save(requestID, strings.NewReader("b"), "image/jpeg")
	require.NoError(t, err)

	// Resubmissions for the same request never clobber earlier evidence
	assert.NotEqual(t, first, second)
}
