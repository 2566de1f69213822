package receipt

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shiget/resheet/internal/export"
	"github.com/shiget/resheet/internal/extraction"
	"github.com/shiget/resheet/internal/quota"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSONError writes the structured error body used by API failures
func writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   kind,
		"message": message,
	})
}

// writeParseError maps pipeline failures onto status codes and error kinds
func writeParseError(w http.ResponseWriter, err error) {
	var xerr *extraction.Error
	switch {
	case errors.Is(err, ErrEmptyText):
		writeJSONError(w, http.StatusBadRequest, "bad_request", err.Error())
	case quota.IsExceeded(err):
		writeJSONError(w, http.StatusTooManyRequests, "quota_exceeded", err.Error())
	case errors.As(err, &xerr):
		writeJSONError(w, statusForKind(xerr.Kind), string(xerr.Kind), xerr.Message)
	default:
		slog.Error("Error handling parse request", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func statusForKind(kind extraction.Kind) int {
	switch kind {
	case extraction.KindBackendUnavailable:
		return http.StatusServiceUnavailable
	case extraction.KindBackendError, extraction.KindMalformedResponse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// handleIndex serves the paste UI
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"message": "server is running",
	})
}

// handleParse runs the extraction pipeline on posted OCR text and
// returns the TSV as plain text
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}

	record, tsv, err := s.service.Parse(r.Context(), req.Text)
	if err != nil {
		writeParseError(w, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Extraction-Id", record.ID)
	w.Write([]byte(tsv))
}

// handleListExtractions returns the extraction history
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListExtractions()
	if err != nil {
		slog.Error("Error listing extractions", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if records == nil {
		records = []*Extraction{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetExtraction returns a single extraction record
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Extraction ID required", http.StatusBadRequest)
		return
	}
	record, err := s.service.GetExtraction(id)
	if err != nil {
		corsError(w, "Extraction not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetExtractionTSV returns the stored TSV for an extraction
func (s *Server) handleGetExtractionTSV(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Extraction ID required", http.StatusBadRequest)
		return
	}
	data, err := s.service.GetExtractionTSV(id)
	if err != nil {
		corsError(w, "Extraction not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

// handleDeleteExtraction deletes an extraction and its artifacts
func (s *Server) handleDeleteExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Extraction ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteExtraction(id); err != nil {
		corsError(w, "Error deleting extraction", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleExportExtractions returns the history as an XLSX workbook
func (s *Server) handleExportExtractions(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListExtractions()
	if err != nil {
		slog.Error("Error listing extractions for export", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	rows := make([]export.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, export.Row{
			CreatedAt: record.CreatedAt,
			Datetime:  stringValue(record.Receipt.Datetime),
			Store:     stringValue(record.Receipt.Store),
			TotalYen:  record.Receipt.TotalYen,
			TaxYen:    record.Receipt.TaxYen,
			Payment:   stringValue(record.Receipt.Payment),
			Items:     len(record.Receipt.Items),
		})
	}

	data, err := s.exporter.Workbook(rows)
	if err != nil {
		slog.Error("Error building workbook", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="extractions.xlsx"`)
	w.Write(data)
}

// handleQuota reports today's usage against the daily limit
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	usage, limit := s.service.UsageToday()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"day":   usage.Day,
		"count": usage.Count,
		"limit": limit,
	})
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
