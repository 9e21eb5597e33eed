package blobs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joandiazestigarribia/upload-project/internal/database"
	"github.com/joandiazestigarribia/upload-project/internal/database/objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://localhost:8080/blobs"

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(filepath.Join(dir, "objects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	objectStore, err := objects.NewObjectStore(db)
	require.NoError(t, err)
	store, err := NewLocalStore(filepath.Join(dir, "blobs"), testBaseURL, objectStore)
	require.NoError(t, err)
	return store
}

func TestLocalStorePutListOpenDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)
	data := []byte("0123456789")

	blob, err := store.Put(ctx, "report.pdf", bytes.NewReader(data), PutOptions{ContentType: "application/pdf"})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", blob.Pathname)
	assert.Equal(t, "application/pdf", blob.ContentType)
	assert.Equal(t, int64(len(data)), blob.Size)
	assert.True(t, strings.HasPrefix(blob.URL, testBaseURL+"/"))
	assert.True(t, strings.HasSuffix(blob.URL, "/report.pdf"))
	assert.Equal(t, "attachment; filename=report.pdf", blob.ContentDisposition)

	blobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, blob.URL, blobs[0].URL)

	key, ok := keyFromURL(testBaseURL, blob.URL)
	require.True(t, ok)
	rc, meta, err := store.Open(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, "application/pdf", meta.ContentType)

	require.NoError(t, store.Delete(ctx, blob.URL))
	blobs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, blobs)

	_, _, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreSamePathnameTwice(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	first, err := store.Put(ctx, "a.txt", strings.NewReader("one"), PutOptions{})
	require.NoError(t, err)
	second, err := store.Put(ctx, "a.txt", strings.NewReader("two"), PutOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, first.URL, second.URL)
	assert.Equal(t, "application/octet-stream", first.ContentType)

	blobs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, blobs, 2)
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	assert.NoError(t, store.Delete(ctx, testBaseURL+"/doesnotexist/a.txt"))
	assert.NoError(t, store.Delete(ctx, "https://elsewhere.example.com/a.txt"))
	assert.NoError(t, store.Delete(ctx, testBaseURL+"/../etc/passwd"))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	_, err := store.Put(ctx, "../escape.txt", strings.NewReader("x"), PutOptions{})
	assert.Error(t, err)

	_, _, err = store.Open(ctx, "../objects.db")
	assert.ErrorIs(t, err, ErrNotFound)

	blobs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestLocalStoreNestedPathname(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	blob, err := store.Put(ctx, "docs/notes.txt", strings.NewReader("hi"), PutOptions{ContentType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, "docs/notes.txt", blob.Pathname)
	assert.Equal(t, "attachment; filename=notes.txt", blob.ContentDisposition)

	require.NoError(t, store.Delete(ctx, blob.URL))
	blobs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestLocalStoreDeleteUnknownNameInExistingPrefix(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	blob, err := store.Put(ctx, "keep.txt", strings.NewReader("keep"), PutOptions{})
	require.NoError(t, err)
	key, ok := keyFromURL(testBaseURL, blob.URL)
	require.True(t, ok)
	prefix, _, _ := strings.Cut(key, "/")

	require.NoError(t, store.Delete(ctx, testBaseURL+"/"+prefix+"/other.txt"))

	blobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	rc, _, err := store.Open(ctx, key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "keep", string(got))
}

func TestLocalStoreDeletePrunesEmptyDirs(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	blob, err := store.Put(ctx, "docs/deep/notes.txt", strings.NewReader("hi"), PutOptions{})
	require.NoError(t, err)
	key, ok := keyFromURL(testBaseURL, blob.URL)
	require.True(t, ok)
	prefix, _, _ := strings.Cut(key, "/")

	require.NoError(t, store.Delete(ctx, blob.URL))

	_, err = os.Stat(filepath.Join(store.root, prefix))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(store.root, "tmp"))
	assert.NoError(t, err)
}
