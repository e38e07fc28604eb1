package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"docchat/internal/ocr"
	"docchat/pkg/models"
)

// multipartOverhead is the slack allowed on top of MaxFileSize for boundaries and headers.
const multipartOverhead = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{Status: "healthy"})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	if s.opts.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFileSize+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !s.allowsExtension(filename) {
		log.Warn().Str("file", filename).Msg("Rejected upload with unsupported extension")
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("File type not allowed. Allowed types: %s", strings.Join(s.opts.AllowedExtensions, ", ")))
		return
	}

	path, err := s.saveUpload(file, filename)
	if err != nil {
		if errors.Is(err, ocr.ErrFileTooLarge) {
			log.Warn().Str("file", filename).Int64("max_size", s.opts.MaxFileSize).Msg("Rejected oversized upload")
			writeError(w, http.StatusBadRequest, "File too large")
			return
		}
		log.Error().Err(err).Str("file", filename).Msg("Failed to save upload")
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}

	convertCtx, cancel := withTimeout(r.Context(), s.opts.OCRTimeout)
	outcome, err := s.converter.Convert(convertCtx, path, filename)
	cancel()
	if err != nil {
		status := http.StatusInternalServerError
		if ocr.IsValidationError(err) {
			status = http.StatusBadRequest
		}
		log.Warn().Err(err).Str("file", filename).Msg("Conversion rejected")
		writeError(w, status, err.Error())
		return
	}

	seedCtx, cancel := withTimeout(r.Context(), s.opts.LLMTimeout)
	s.editor.SetHTML(seedCtx, outcome.HTML)
	cancel()

	log.Info().
		Str("file", filename).
		Str("path", path).
		Bool("ocr_failed", outcome.Err != nil).
		Msg("Upload processed")

	writeJSON(w, http.StatusOK, models.UploadResponse{
		Success:  true,
		HTML:     outcome.HTML,
		Filename: filename,
	})
}

// saveUpload writes src to the upload directory under a unique name. Content beyond
// MaxFileSize removes the partial file and returns ocr.ErrFileTooLarge.
func (s *Server) saveUpload(src io.Reader, filename string) (string, error) {
	const op = "saveUpload"

	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("%s: create upload dir: %w", op, err)
	}

	path := filepath.Join(s.opts.UploadDir, uuid.NewString()+"-"+filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%s: create file: %w", op, err)
	}

	reader := src
	if s.opts.MaxFileSize > 0 {
		reader = io.LimitReader(src, s.opts.MaxFileSize+1)
	}
	written, copyErr := io.Copy(dst, reader)
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("%s: write file: %w", op, copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("%s: close file: %w", op, closeErr)
	case s.opts.MaxFileSize > 0 && written > s.opts.MaxFileSize:
		_ = os.Remove(path)
		return "", ocr.NewOCRError(op, ocr.ErrFileTooLarge, filename)
	}
	return path, nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	ctx, cancel := withTimeout(r.Context(), s.opts.LLMTimeout)
	defer cancel()

	turn := s.editor.Chat(ctx, req.Message)

	hlog.FromRequest(r).Info().
		Bool("applied", turn.Applied).
		Int("html_length", len(turn.HTML)).
		Msg("Chat turn completed")

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Message: turn.Explanation,
		HTML:    turn.HTML,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.ExportResponse{HTML: s.exporter.HTML()})
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r.Context(), s.opts.PDFTimeout)
	defer cancel()

	pdf, err := s.exporter.PDF(ctx)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("PDF export failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("PDF export failed: %v", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="document.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
