package uploads

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage("image/jpeg", 1024))
	assert.NoError(t, ValidateImage("image/png", MaxImageSize))

	assert.ErrorIs(t, ValidateImage("application/pdf", 1024), ErrNotImage)
	assert.ErrorIs(t, ValidateImage("", 1024), ErrNotImage)
	assert.ErrorIs(t, ValidateImage("image/png", MaxImageSize+1), ErrTooLarge)
}

func TestFilename(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC)

	assert.Equal(t, "20250601_093015_photo.jpg", Filename("", "photo.jpg", at))
	assert.Equal(t, "quest_abc_20250601_093015_proof.png", Filename("quest_abc", "proof.png", at))
}

func TestFilenameFlattensPaths(t *testing.T) {
	at := time.Date(2025, 6, 1, 9, 30, 15, 0, time.UTC)

	// Client-supplied names must not escape the upload directory.
	assert.Equal(t, "20250601_093015_passwd", Filename("", "../../etc/passwd", at))
	assert.Equal(t, "20250601_093015_evil.png", Filename("", `C:\temp\evil.png`, at))
	assert.Equal(t, "20250601_093015_upload", Filename("", "", at))
}

func TestStoreSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "/uploads/")
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	path, err := store.Save("quest_x", "proof.jpg", []byte("jpegdata"))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegdata"), data)

	assert.Equal(t, "/uploads/"+filepath.Base(path), store.URL(path))

	require.NoError(t, store.Remove(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
