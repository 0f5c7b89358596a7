package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkovalev/newsstand/internal/metrics"
	"github.com/mkovalev/newsstand/internal/storage"
)

type uploadData struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type uploadResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *uploadData `json:"data,omitempty"`
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.ObserveUpload("put", "too_large", 0)
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the upload size limit")
			return
		}
		metrics.ObserveUpload("put", "bad_request", 0)
		writeError(w, http.StatusBadRequest, "bad_request", "multipart field 'file' is required")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Warn("close upload part", zap.Error(closeErr))
		}
	}()

	filename := storedFilename(header.Filename)
	contentType := header.Header.Get("Content-Type")
	info, err := s.files.Put(r.Context(), filename, contentType, file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.ObserveUpload("put", "too_large", 0)
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "file exceeds the upload size limit")
			return
		}
		s.logger.Error("store upload failed", zap.String("filename", filename), zap.Error(err))
		metrics.ObserveUpload("put", "error", 0)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to store file")
		return
	}

	metrics.ObserveUpload("put", "ok", info.Size)
	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: "file uploaded",
		Data: &uploadData{
			URL:      "/uploads/" + info.Filename,
			Filename: info.Filename,
			Size:     info.Size,
		},
	})
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := s.files.Delete(r.Context(), filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.ObserveUpload("delete", "not_found", 0)
			writeError(w, http.StatusNotFound, "not_found", "file not found")
			return
		}
		s.logger.Error("delete upload failed", zap.String("filename", filename), zap.Error(err))
		metrics.ObserveUpload("delete", "error", 0)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to delete file")
		return
	}
	metrics.ObserveUpload("delete", "ok", 0)
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Message: "file deleted"})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.files.List(r.Context())
	if err != nil {
		s.logger.Error("list uploads failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list files")
		return
	}
	if files == nil {
		files = []storage.FileInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": files})
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	f, err := s.files.Open(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "file not found")
			return
		}
		s.logger.Error("open upload failed", zap.String("filename", filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to open file")
		return
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			s.logger.Warn("close upload file", zap.Error(closeErr))
		}
	}()

	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("stream upload file", zap.String("filename", filename), zap.Error(err))
	}
}

// storedFilename prefixes the sanitized client name with a UUID so
// concurrent uploads of the same file never collide.
func storedFilename(clientName string) string {
	base := filepath.Base(strings.TrimSpace(clientName))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	return uuid.NewString() + "-" + base
}
