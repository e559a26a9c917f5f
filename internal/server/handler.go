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

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"pdf-translator/internal/logger"
	"pdf-translator/internal/pdf"
	"pdf-translator/internal/pipeline"
	"pdf-translator/internal/storage"
	"pdf-translator/internal/translate"
)

// Error codes surfaced to clients
const (
	codeInvalidUpload       = "INVALID_UPLOAD"
	codePayloadTooLarge     = "PAYLOAD_TOO_LARGE"
	codeUnsupportedLanguage = "UNSUPPORTED_LANGUAGE"
	codeInternal            = "INTERNAL"
)

// errorResponse is the JSON error body
type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","service":"pdf-translator"}`))
}

// handleLanguages lists the supported target languages as a code-to-name map
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	langs := s.directory.Languages(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(langs); err != nil {
		logger.Error("failed to encode language listing", err)
	}
}

// handleUpload runs one translation request end to end: validate the
// multipart upload, drive the pipeline, stream the rebuilt PDF back, and
// delete every artifact regardless of outcome.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimiddleware.GetReqID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge,
				fmt.Sprintf("file exceeds the maximum size of %d bytes", s.cfg.MaxUploadBytes))
			return
		}
		s.writeError(w, http.StatusBadRequest, codeInvalidUpload, "request is not a valid multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, codeInvalidUpload, "no file provided")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		s.writeError(w, http.StatusBadRequest, codeInvalidUpload, "only PDF files are supported")
		return
	}

	target := translate.NormalizeCode(r.FormValue("target_language"))
	if target == "" || target == "auto" {
		s.writeError(w, http.StatusBadRequest, codeInvalidUpload, "target_language is required")
		return
	}
	if !s.directory.Supported(ctx, target) {
		s.writeError(w, http.StatusBadRequest, codeUnsupportedLanguage,
			fmt.Sprintf("target language %q is not supported", target))
		return
	}

	source := translate.NormalizeCode(r.FormValue("source_language"))
	if source == "" {
		source = "auto"
	}

	uploadPath, err := s.store.SaveUpload(file)
	if err != nil {
		logger.Error("failed to store upload", err, logger.String("request", requestID))
		s.writeError(w, http.StatusInternalServerError, codeInternal, "could not store the uploaded file")
		return
	}

	job := pipeline.NewJob(requestID, header.Filename, uploadPath, s.store)
	if err := s.pipeline.Run(ctx, job, source, target); err != nil {
		status, code, msg := mapPipelineError(err)
		logger.Error("translation request failed", err,
			logger.String("request", requestID),
			logger.String("code", code))
		s.writeError(w, status, code, msg)
		return
	}

	s.serveResult(w, job, target)
}

// serveResult streams the rebuilt PDF and completes the job lifecycle
func (s *Server) serveResult(w http.ResponseWriter, job *pipeline.Job, target string) {
	defer job.Served()

	f, err := os.Open(job.OutputPath())
	if err != nil {
		logger.Error("rebuilt PDF vanished before serving", err, logger.String("request", job.ID))
		job.Fail()
		s.writeError(w, http.StatusInternalServerError, codeInternal, "translated document is unavailable")
		return
	}
	defer f.Close()

	downloadName := storage.DownloadName(job.OriginalName, target)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	if info, statErr := f.Stat(); statErr == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	}

	if _, err := io.Copy(w, f); err != nil {
		// Headers are gone; nothing to send but the artifacts still get deleted
		logger.Warn("download interrupted", logger.String("request", job.ID), logger.Err(err))
		return
	}

	logger.Info("translated PDF served",
		logger.String("request", job.ID),
		logger.String("target", target),
		logger.String("file", downloadName))
}

// mapPipelineError translates a pipeline failure into an HTTP status, a
// client-facing code, and a message
func mapPipelineError(err error) (int, string, string) {
	var pdfErr *pdf.PDFError
	if errors.As(err, &pdfErr) {
		switch pdfErr.Code {
		case pdf.ErrEncrypted:
			return http.StatusBadRequest, string(pdf.ErrEncrypted), "PDF is password protected"
		case pdf.ErrUnreadable:
			return http.StatusBadRequest, string(pdf.ErrUnreadable), "file is not a readable PDF"
		case pdf.ErrRebuild:
			// Internal detail stays in the logs
			return http.StatusInternalServerError, string(pdf.ErrRebuild), "could not generate the translated document"
		}
	}

	var apiErr *translate.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case translate.ErrUnsupportedLanguage:
			return http.StatusBadRequest, codeUnsupportedLanguage, "requested language pair is not supported"
		case translate.ErrServiceUnavailable:
			return http.StatusBadGateway, string(translate.ErrServiceUnavailable), "translation service is unavailable"
		default:
			return http.StatusBadGateway, string(translate.ErrTranslationFailed), "translation failed"
		}
	}

	var pipeErr *pipeline.PipelineError
	if errors.As(err, &pipeErr) {
		switch pipeErr.Code {
		case pipeline.ErrNoText:
			return http.StatusUnprocessableEntity, string(pipeline.ErrNoText), "document contains no translatable text"
		case pipeline.ErrCanceled:
			// 499 convention for client-closed requests
			return 499, string(pipeline.ErrCanceled), "request was canceled"
		}
	}

	return http.StatusInternalServerError, codeInternal, "internal error"
}

// writeError sends the JSON error body
func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{
		Success: false,
		Message: message,
		Code:    code,
	})
}
