package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/zombor/soliq-checkmate/internal/export"
	"github.com/zombor/soliq-checkmate/internal/ofd"
)

// maxRequestSize caps the JSON body of a lookup request
const maxRequestSize = 1 << 20

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSONError writes {"error": message} with the given status
func writeJSONError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// errorResponse maps a lookup or export failure to a status and user message
func errorResponse(err error) (int, string) {
	var serverErr *ofd.ServerError
	switch {
	case errors.Is(err, ofd.ErrInvalidURLFormat):
		return http.StatusBadRequest, fmt.Sprintf("Invalid link format. The link must start with %s", ofd.URLPrefix)
	case errors.Is(err, ofd.ErrEmptyResult):
		return http.StatusUnprocessableEntity, "No items were found on the receipt. Check the link."
	case errors.Is(err, ofd.ErrMalformedDocument):
		return http.StatusUnprocessableEntity, "The receipt page has an unexpected layout."
	case errors.Is(err, ofd.ErrNotFound):
		return http.StatusNotFound, "Receipt not found. Check the link."
	case errors.Is(err, ofd.ErrTimeout):
		return http.StatusGatewayTimeout, "The receipt server did not answer in time. Please try again later."
	case errors.Is(err, ofd.ErrConnectionFailed):
		return http.StatusBadGateway, "Could not connect to the receipt server."
	case errors.As(err, &serverErr):
		return http.StatusBadGateway, fmt.Sprintf("Receipt server error: %d", serverErr.StatusCode)
	case errors.Is(err, ErrLookupNotFound):
		return http.StatusNotFound, "Lookup not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// handleCreateLookup fetches and parses the receipt link from the request body
func (s *Server) handleCreateLookup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		writeJSONError(w, "Please enter a receipt link", http.StatusBadRequest)
		return
	}

	lookup, err := s.service.Lookup(r.Context(), req.URL)
	if err != nil {
		slog.Error("Error looking up receipt", "url", req.URL, "error", err)
		code, message := errorResponse(err)
		writeJSONError(w, message, code)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(lookup); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetLookup returns a pending lookup
func (s *Server) handleGetLookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lookup, err := s.service.GetLookup(id)
	if err != nil {
		code, message := errorResponse(err)
		writeJSONError(w, message, code)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(lookup); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleExport renders a lookup as a file download
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	download, err := s.service.Export(id, format)
	if err != nil {
		slog.Error("Error exporting lookup", "id", id, "format", format, "error", err)
		code, message := errorResponse(err)
		writeJSONError(w, message, code)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", download.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	w.Write(download.Data)
}
