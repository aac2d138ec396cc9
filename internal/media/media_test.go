package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads/")
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())
	assert.Equal(t, "/uploads", s.Prefix())

	ref, err := s.Save(context.Background(), "Diya.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "/uploads/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	content, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

func TestDiskStoreUniqueNames(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	a, err := s.Save(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("1"))
	require.NoError(t, err)
	b, err := s.Save(context.Background(), "a.jpg", "image/jpeg", strings.NewReader("2"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDiskStoreRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads")
	require.NoError(t, err)

	for _, ct := range []string{"text/plain", "application/pdf", ""} {
		_, err := s.Save(context.Background(), "x.pdf", ct, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUnsupportedType, ct)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDiskStoreCancelledContext(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Save(ctx, "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiskStoreDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads")
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := s.Save(ctx, "a.png", "image/png", strings.NewReader("1"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, ref))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NoError(t, s.Delete(ctx, ref), "deleting twice is a no-op")
	assert.Error(t, s.Delete(ctx, "/elsewhere/a.png"))
	assert.Error(t, s.Delete(ctx, "/uploads/../secret.png"))
}
