// Package server exposes the extraction operations over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfextract/internal/extractor"
	"github.com/local/pdfextract/internal/filetype"
	"github.com/local/pdfextract/internal/metrics"
	"github.com/local/pdfextract/internal/preview"
)

// Server handles the /api/pdf routes.
type Server struct {
	extractor   *extractor.Extractor
	renderer    *preview.Renderer
	maxFileSize int64
}

// New builds a Server around the extraction orchestrator and the preview
// renderer.
func New(ex *extractor.Extractor, rend *preview.Renderer, maxFileSize int64) *Server {
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &Server{extractor: ex, renderer: rend, maxFileSize: maxFileSize}
}

// RegisterRoutes attaches all handlers to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/pdf/extract", s.handleExtract)
	mux.HandleFunc("/api/pdf/info", s.handleInfo)
	mux.HandleFunc("/api/pdf/preview", s.handlePreview)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	session := sessionID(r)
	pages := r.FormValue("pages")

	res, err := s.extractor.Extract(r.Context(), session, data, pages)
	if err != nil {
		jsonError(w, statusFor(err), err.Error())
		return
	}

	outName := extractor.OutputFilename(sanitizeFilename(filename))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	_, _ = w.Write(res.Data)

	log.Info().
		Str("session", session).
		Str("file", outName).
		Int("pages", len(res.Indices)).
		Int("bytes", len(res.Data)).
		Msg("served extracted document")
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	count, err := s.extractor.Inspect(data)
	if err != nil {
		jsonError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"page_count": count})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, _, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	pageIndex, err := strconv.Atoi(r.FormValue("page"))
	if err != nil || pageIndex < 0 {
		jsonError(w, http.StatusBadRequest, "invalid page index")
		return
	}
	scale := 1.0
	if v := r.FormValue("scale"); v != "" {
		scale, err = strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid scale")
			return
		}
	}

	img, _, _, err := s.renderer.RenderPage(data, pageIndex, scale)
	if err != nil {
		metrics.IncPreview("error")
		log.Warn().Err(err).Int("page_index", pageIndex).Msg("preview render failed")
		jsonError(w, http.StatusUnprocessableEntity, "Failed to render page preview.")
		return
	}
	metrics.IncPreview("success")
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(img)
}

// readUpload reads and validates the multipart "pdf" field. On failure it
// writes the error response itself and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxFileSize)
	if err := r.ParseMultipartForm(s.maxFileSize); err != nil {
		jsonError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload too large or malformed (limit %d bytes).", s.maxFileSize))
		return nil, "", false
	}
	file, hdr, err := r.FormFile("pdf")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "No PDF file provided.")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "Failed to read uploaded file.")
		return nil, "", false
	}
	if info := filetype.Detect(data); !info.IsPDF {
		jsonError(w, http.StatusBadRequest, "Uploaded file is not a PDF.")
		return nil, "", false
	}
	metrics.ObserveUploadSize(len(data))
	return data, hdr.Filename, true
}

// sessionID picks the single-flight key: an explicit session header or form
// field when the client sends one, otherwise the client address.
func sessionID(r *http.Request) string {
	if v := r.Header.Get("X-Session-ID"); v != "" {
		return v
	}
	if v := r.FormValue("session_id"); v != "" {
		return v
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return uuid.NewString()
}

func statusFor(err error) int {
	var e *extractor.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case extractor.KindValidation:
		return http.StatusBadRequest
	case extractor.KindLoad:
		return http.StatusUnprocessableEntity
	case extractor.KindBusy:
		return http.StatusConflict
	case extractor.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sanitizeFilename strips path components and traversal attempts from a
// client-supplied filename.
func sanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.TrimSpace(filepath.Base(filename))
	if filename == "" || filename == "." {
		filename = "document.pdf"
	}
	return filename
}
