// Package blobs is the blob store client used by the file service.
//
// A blob is addressed by its URL, which the store assigns on Put and never
// changes. The pathname is the user-facing name and is not unique: every Put
// gets a fresh random key prefix.
package blobs

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotFound = errors.New("blob not found")

// Blob is the metadata the store keeps for one stored object.
type Blob struct {
	URL                string    `json:"url"`
	Pathname           string    `json:"pathname"`
	ContentType        string    `json:"contentType"`
	ContentDisposition string    `json:"contentDisposition"`
	Size               int64     `json:"size"`
	UploadedAt         time.Time `json:"uploadedAt"`
}

type PutOptions struct {
	// ContentType is stored with the object. Empty means application/octet-stream.
	ContentType string
}

// Store is a managed object store with public, directly fetchable URLs.
type Store interface {
	// Put streams r into a new object named pathname. r is read once and
	// never buffered as a whole.
	Put(ctx context.Context, pathname string, r io.Reader, opts PutOptions) (*Blob, error)
	// List returns every stored object.
	List(ctx context.Context) ([]Blob, error)
	// Delete removes the object with the given URL. Unknown URLs are not an error.
	Delete(ctx context.Context, url string) error
}

// Opener is implemented by stores that serve their own bytes.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, *Blob, error)
}
