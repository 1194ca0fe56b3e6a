package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"imsidesk/internal/domain/request"
	middlewarex "imsidesk/internal/http/middleware"
	"imsidesk/internal/services/cases"
	"imsidesk/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// FirstPage serves GET mno-first-page
func FirstPage(svc *cases.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := middlewarex.Operator(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "operator not found")
			return
		}

		page, err := svc.FirstPage(r.Context(), parsePageRequest(r, operator))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// BulkDownload serves GET mno-bulk-download as CSV
func BulkDownload(svc *cases.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := middlewarex.Operator(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "operator not found")
			return
		}

		// buffer so a failed export still gets a proper status code
		var buf bytes.Buffer
		if err := svc.ExportCSV(r.Context(), operator, &buf); err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+request.ExportFileName+`"`)
		w.Write(buf.Bytes())
	}
}

// SingleUpload serves PUT mno-single-upload
func SingleUpload(svc *cases.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := middlewarex.Operator(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "operator not found")
			return
		}

		var req request.AttachIMSI
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		msg, err := svc.Attach(r.Context(), operator, req)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, request.AttachResult{Message: msg})
	}
}

func parsePageRequest(r *http.Request, operator string) cases.PageRequest {
	req := cases.PageRequest{Operator: operator}
	if v := r.URL.Query().Get("start"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Start = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Limit = n
		}
	}
	return req
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cases.ErrInvalidRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repositories.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "no pending request for this number")
	case errors.Is(err, repositories.ErrAlreadyAttached):
		writeMessage(w, http.StatusConflict, "IMSI is already attached to another number")
	default:
		log.Error().Err(err).Msg("simulator request failed")
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
