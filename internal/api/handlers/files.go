package handlers

import (
	"errors"
	"github.com/joandiazestigarribia/upload-project/internal/blobs"
	"github.com/joandiazestigarribia/upload-project/internal/files"
	"log/slog"
	"net/http"
)

type FileHandler struct {
	files          *files.FileService
	maxUploadBytes int64
}

type listResponse struct {
	Blobs []blobs.Blob `json:"blobs"`
}

type deleteRequest struct {
	Url string `json:"url"`
}

type deleteResponse struct {
	Success bool `json:"success"`
}

type renameRequest struct {
	OldUrl      string `json:"oldUrl"`
	NewFilename string `json:"newFilename"`
}

// NewFileHandler serves the JSON file API. maxUploadBytes of 0 leaves upload
// bodies unbounded.
func NewFileHandler(files *files.FileService, maxUploadBytes int64) *FileHandler {
	return &FileHandler{
		files:          files,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *FileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.files.List(r.Context())
	if err != nil {
		slog.Error("Error listing files", "error", err, "request_id", requestID(r))
		writeError(w, http.StatusInternalServerError, "Error listing files")
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Blobs: list})
}

func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	body := r.Body
	if h.maxUploadBytes > 0 && body != nil && body != http.NoBody {
		body = http.MaxBytesReader(w, body, h.maxUploadBytes)
	}

	blob, err := h.files.Upload(r.Context(), filename, body, r.Header.Get("Content-Type"))
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, files.ErrFilenameRequired):
			writeError(w, http.StatusBadRequest, "Filename is required")
		case errors.Is(err, files.ErrInvalidFilename):
			writeError(w, http.StatusBadRequest, "Invalid filename")
		case errors.Is(err, files.ErrBodyRequired):
			writeError(w, http.StatusBadRequest, "Invalid request body")
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		default:
			slog.Error("Error uploading file", "error", err, "filename", filename, "request_id", requestID(r))
			writeError(w, http.StatusInternalServerError, "Error uploading file")
		}
		return
	}
	writeJSON(w, http.StatusOK, blob)
}

// HandleDelete serves both DELETE /api/delete and DELETE /api/upload.
func (h *FileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if err := h.files.Delete(r.Context(), req.Url); err != nil {
		if errors.Is(err, files.ErrURLRequired) {
			writeError(w, http.StatusBadRequest, "URL is required")
			return
		}
		slog.Error("Error deleting file", "error", err, "url", req.Url, "request_id", requestID(r))
		writeError(w, http.StatusInternalServerError, "Error deleting file")
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true})
}

func (h *FileHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	blob, err := h.files.Rename(r.Context(), req.OldUrl, req.NewFilename)
	if err != nil {
		switch {
		case errors.Is(err, files.ErrNotFound):
			writeError(w, http.StatusNotFound, "File not found")
		case errors.Is(err, files.ErrNewFilenameRequired):
			writeError(w, http.StatusBadRequest, "New filename is required")
		case errors.Is(err, files.ErrInvalidFilename):
			writeError(w, http.StatusBadRequest, "Invalid filename")
		default:
			slog.Error("Error renaming file", "error", err, "old_url", req.OldUrl, "request_id", requestID(r))
			writeError(w, http.StatusInternalServerError, "Error renaming file")
		}
		return
	}
	writeJSON(w, http.StatusOK, blob)
}
