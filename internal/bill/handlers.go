package bill

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// errorJSON writes the error contract: {"is_success": false, "message": ...}
func errorJSON(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{IsSuccess: false, Message: message})
}

// extractStatusCode maps pipeline errors to HTTP status codes
func extractStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrMalformedInput), errors.Is(err, ErrQualityTooLow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleExtract runs the extraction pipeline. It accepts either a JSON
// body {"document": "<url>"} or a multipart form with a "file" field.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var record *AuditRecord
	var err error

	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var req struct {
			Document string `json:"document"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil {
			errorJSON(w, "Request body must be valid JSON", http.StatusBadRequest)
			return
		}
		if urlErr := ValidateDocumentURL(req.Document); urlErr != nil {
			errorJSON(w, urlErr.Error(), http.StatusBadRequest)
			return
		}
		slog.Info("Processing document from URL")
		record, err = s.service.ProcessDocumentURL(req.Document)

	case strings.HasPrefix(contentType, "multipart/form-data"):
		record, err = s.processUpload(w, r)
		if record == nil && err == nil {
			// processUpload already wrote the error response
			return
		}

	default:
		errorJSON(w, "Request must be JSON with a document URL or a multipart file upload", http.StatusBadRequest)
		return
	}

	if err != nil {
		slog.Error("Error processing document", "error", err)
		errorJSON(w, err.Error(), extractStatusCode(err))
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record.Result); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// processUpload reads a multipart file upload and runs the pipeline.
// On request-level problems it writes the error response itself and
// returns (nil, nil).
func (s *Server) processUpload(w http.ResponseWriter, r *http.Request) (*AuditRecord, error) {
	maxFormSize := int64(50 << 20) // 50MB
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorJSON(w, "Error parsing form", http.StatusBadRequest)
		return nil, nil
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorJSON(w, "No file was provided. Please choose a file to upload.", http.StatusBadRequest)
		return nil, nil
	}
	defer f.Close()

	if header.Size > maxFormSize {
		errorJSON(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return nil, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		errorJSON(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	slog.Info("Processing uploaded document", "filename", header.Filename, "content_type", contentType, "size", len(data))
	return s.service.ProcessDocument(header.Filename, data, contentType)
}

// handleHealth is the monitoring endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "Bill Audit API",
		"version": s.version,
	})
}

// handleHome returns API information
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Bill Audit API",
		"version": s.version,
		"endpoints": map[string]string{
			"extract": "/extract-bill-data (POST)",
			"audits":  "/api/audits (GET)",
			"health":  "/health (GET)",
		},
	})
}

// handleListAudits returns a list of all audit records
func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListAudits()
	if err != nil {
		slog.Error("Error listing audit records", "error", err)
		errorJSON(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if records == nil {
		records = []*AuditRecord{}
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetAudit returns a single audit record
func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		errorJSON(w, "Audit ID required", http.StatusBadRequest)
		return
	}
	record, err := s.service.GetAudit(id)
	if err != nil {
		errorJSON(w, "Audit record not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetAuditFile returns the stored source document for an audit record
func (s *Server) handleGetAuditFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		errorJSON(w, "Audit ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetAuditFile(id)
	if err != nil {
		errorJSON(w, "Document not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteAudit deletes an audit record
func (s *Server) handleDeleteAudit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		errorJSON(w, "Audit ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteAudit(id); err != nil {
		errorJSON(w, "Error deleting audit record", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}
