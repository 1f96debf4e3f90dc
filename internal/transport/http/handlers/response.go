package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vedran77/taskmate/pkg/validator"
)

type apiError struct {
	Code    string                     `json:"code"`
	Message string                     `json:"message,omitempty"`
	Details string                     `json:"details,omitempty"`
	Fields  validator.ValidationErrors `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeAPIError(w http.ResponseWriter, status int, e apiError) {
	writeJSON(w, status, map[string]apiError{"error": e})
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeAPIError(w, status, apiError{Code: code, Message: message})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeAPIError(w, http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Fields: errs})
}

func writeInternal(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
}
