package server

import (
	"encoding/json"
	"net/http"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	body := errorBody{}
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}

// writeErr maps an errs kind onto an HTTP status and error code.
func writeErr(w http.ResponseWriter, err error) {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		writeError(w, http.StatusNotFound, "not_found", errs.Message(err))
	case errs.ErrKindInvalidInput:
		writeError(w, http.StatusBadRequest, "invalid_input", errs.Message(err))
	case errs.ErrKindConnectionFailed:
		writeError(w, http.StatusServiceUnavailable, "connection_failed", errs.Message(err))
	case errs.ErrKindTimeout:
		writeError(w, http.StatusGatewayTimeout, "timeout", errs.Message(err))
	case errs.ErrKindPermissionDenied:
		writeError(w, http.StatusForbidden, "permission_denied", errs.Message(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", errs.Message(err))
	}
}
