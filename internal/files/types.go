package files

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/joandiazestigarribia/upload-project/internal/blobs"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("file not found")

	ErrFilenameRequired    = fmt.Errorf("%w: filename is required", ErrInvalidInput)
	ErrInvalidFilename     = fmt.Errorf("%w: invalid filename", ErrInvalidInput)
	ErrBodyRequired        = fmt.Errorf("%w: request body is required", ErrInvalidInput)
	ErrURLRequired         = fmt.Errorf("%w: url is required", ErrInvalidInput)
	ErrNewFilenameRequired = fmt.Errorf("%w: new filename is required", ErrInvalidInput)
)

type FileService struct {
	store  blobs.Store
	client *http.Client
}
