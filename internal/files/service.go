package files

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sort"
	"strings"

	"github.com/joandiazestigarribia/upload-project/internal/blobs"
)

// NewFileService returns a service over store. client fetches object bytes
// during rename; nil means http.DefaultClient.
func NewFileService(store blobs.Store, client *http.Client) *FileService {
	if client == nil {
		client = http.DefaultClient
	}
	return &FileService{store: store, client: client}
}

// List returns every stored file, newest first.
func (s *FileService) List(ctx context.Context) ([]blobs.Blob, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})
	return list, nil
}

// Upload streams body into the store under filename. contentType is the
// client-declared type and may be empty.
func (s *FileService) Upload(ctx context.Context, filename string, body io.Reader, contentType string) (*blobs.Blob, error) {
	filename, err := normalizeFilename(filename, ErrFilenameRequired)
	if err != nil {
		return nil, err
	}
	if body == nil || body == http.NoBody {
		return nil, ErrBodyRequired
	}
	blob, err := s.store.Put(ctx, filename, body, blobs.PutOptions{
		ContentType: resolveContentType(contentType, filename),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	slog.Info("Uploaded file", "pathname", blob.Pathname, "url", blob.URL, "size", blob.Size)
	return blob, nil
}

// Delete removes the file at url. Deleting an unknown url succeeds.
func (s *FileService) Delete(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return ErrURLRequired
	}
	if err := s.store.Delete(ctx, url); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	slog.Info("Deleted file", "url", url)
	return nil
}

// Rename copies the file at oldURL to newFilename and then deletes the
// original. The steps are not atomic: when the final delete fails the new
// copy is kept and both files remain.
func (s *FileService) Rename(ctx context.Context, oldURL, newFilename string) (*blobs.Blob, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	var old *blobs.Blob
	for i := range list {
		if list[i].URL == oldURL {
			old = &list[i]
			break
		}
	}
	if old == nil {
		return nil, ErrNotFound
	}
	newFilename, err = normalizeFilename(newFilename, ErrNewFilenameRequired)
	if err != nil {
		return nil, err
	}

	body, contentType, err := s.fetch(ctx, old.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	blob, err := s.store.Put(ctx, newFilename, body, blobs.PutOptions{ContentType: contentType})
	if err != nil {
		return nil, fmt.Errorf("failed to store renamed file: %w", err)
	}

	if err := s.store.Delete(ctx, old.URL); err != nil {
		slog.Warn("Rename left the original file in place", "old_url", old.URL, "new_url", blob.URL, "error", err)
		return nil, fmt.Errorf("failed to delete original file: %w", err)
	}
	slog.Info("Renamed file", "old_url", old.URL, "new_url", blob.URL, "pathname", blob.Pathname)
	return blob, nil
}

// fetch downloads url through its public address.
func (s *FileService) fetch(ctx context.Context, url string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build fetch request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch file: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("failed to fetch file: unexpected status %s", resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return resp.Body, contentType, nil
}

// normalizeFilename turns backslashes into slashes and drops empty and "."
// segments. A name with nothing left returns missing; ".." is rejected.
func normalizeFilename(name string, missing error) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	segments := make([]string, 0, strings.Count(name, "/")+1)
	for _, seg := range strings.Split(name, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidFilename
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return "", missing
	}
	return strings.Join(segments, "/"), nil
}

// resolveContentType prefers a meaningful client header and falls back to
// the filename extension.
func resolveContentType(declared, filename string) string {
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
			return declared
		}
	}
	return blobs.ContentTypeFor(filename)
}
