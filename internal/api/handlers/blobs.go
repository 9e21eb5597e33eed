package handlers

import (
	"errors"
	"github.com/joandiazestigarribia/upload-project/internal/blobs"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// BlobHandler serves the bytes of stores that host their own objects.
type BlobHandler struct {
	opener blobs.Opener
}

// NewBlobHandler returns a handler for opener; a nil opener answers 404 to everything.
func NewBlobHandler(opener blobs.Opener) *BlobHandler {
	return &BlobHandler{opener: opener}
}

func (h *BlobHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.opener == nil {
		http.NotFound(w, r)
		return
	}
	rc, blob, err := h.opener.Open(r.Context(), r.PathValue("key"))
	if err != nil {
		if !errors.Is(err, blobs.ErrNotFound) {
			slog.Error("Failed to open blob", "error", err, "key", r.PathValue("key"), "request_id", requestID(r))
		}
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	// Uploaded content is never trusted to run in this origin.
	w.Header().Set("Content-Security-Policy", "sandbox")
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, blob.Pathname, blob.UploadedAt, rs)
		return
	}
	w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("Failed to stream blob", "error", err, "key", r.PathValue("key"))
	}
}
