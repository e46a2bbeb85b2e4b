package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/A1iAshoor/s3-relay/internal/common"
)

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

// writeError maps domain errors onto HTTP statuses. Unknown errors become
// an opaque 500 so internals never leak to the browser.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidRequest):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrOwnerUnauthorized):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrDuplicateUpload):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrURLMismatch):
		writeMessage(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
