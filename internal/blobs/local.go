package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joandiazestigarribia/upload-project/internal/database/objects"
)

// LocalStore keeps blob bytes on disk and their metadata in SQLite. Its URLs
// point back at this server and are served through Open.
type LocalStore struct {
	root    string
	baseURL string
	objects *objects.Store
}

// NewLocalStore creates a store rooted at root whose URLs start with baseURL.
func NewLocalStore(root, baseURL string, objects *objects.Store) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("local storage base URL is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0755); err != nil {
		return nil, fmt.Errorf("error creating storage directory: %w", err)
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(baseURL, "/"), objects: objects}, nil
}

func (s *LocalStore) Put(ctx context.Context, pathname string, r io.Reader, opts PutOptions) (*Blob, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "put-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}

	key := newKey(pathname)
	dst, err := s.pathFromKey(key)
	if err != nil {
		cleanup()
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to move blob into place: %w", err)
	}

	obj := &objects.Object{
		Key:                key,
		Url:                keyURL(s.baseURL, key),
		Pathname:           pathnameFromKey(key),
		ContentType:        contentTypeOrDefault(opts.ContentType),
		ContentDisposition: contentDisposition(pathname),
		Size:               n,
		UploadedAt:         time.Now().UTC(),
	}
	if err := s.objects.Create(ctx, obj); err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	return blobFromObject(obj), nil
}

func (s *LocalStore) List(ctx context.Context) ([]Blob, error) {
	objs, err := s.objects.List(ctx)
	if err != nil {
		return nil, err
	}
	blobs := make([]Blob, 0, len(objs))
	for i := range objs {
		blobs = append(blobs, *blobFromObject(&objs[i]))
	}
	return blobs, nil
}

func (s *LocalStore) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(s.baseURL, url)
	if !ok {
		slog.Debug("Ignoring delete of foreign URL", "url", url)
		return nil
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return nil
	}
	// Only keys this store issued are touched.
	if _, err := s.objects.Get(ctx, key); err != nil {
		if errors.Is(err, objects.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		return err
	}
	s.pruneDirs(filepath.Dir(path))
	return nil
}

// pruneDirs removes empty directories from dir up to, but not including, root.
func (s *LocalStore) pruneDirs(dir string) {
	for dir != s.root && strings.HasPrefix(dir, s.root+string(filepath.Separator)) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Open returns the bytes and metadata stored under key.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, *Blob, error) {
	path, err := s.pathFromKey(key)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	obj, err := s.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, objects.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, blobFromObject(obj), nil
}

func (s *LocalStore) pathFromKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("blob key is required")
	}
	segments := strings.Split(key, "/")
	if len(segments) < 2 || segments[0] == "tmp" {
		return "", fmt.Errorf("invalid blob key")
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." || strings.ContainsRune(seg, '\\') {
			return "", fmt.Errorf("invalid blob key")
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

func blobFromObject(obj *objects.Object) *Blob {
	return &Blob{
		URL:                obj.Url,
		Pathname:           obj.Pathname,
		ContentType:        obj.ContentType,
		ContentDisposition: obj.ContentDisposition,
		Size:               obj.Size,
		UploadedAt:         obj.UploadedAt,
	}
}
