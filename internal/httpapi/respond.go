package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/DoyleJ11/versus-room/internal/types"
)

const maxJSONBody = 1 << 20

var errTrailingData = errors.New("request body must contain a single JSON object")

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes body with the status its code maps to.
func WriteError(w http.ResponseWriter, body types.ErrorBody) {
	WriteJSON(w, statusOf(body.Error), body)
}

func statusOf(code string) int {
	switch code {
	case types.CodeBadRequest, types.CodeUnsupported:
		return http.StatusBadRequest
	case types.CodeNotFound, types.CodeUnknownPlayer, types.CodeNoLeader:
		return http.StatusNotFound
	case types.CodeEmptyNickname:
		return http.StatusUnprocessableEntity
	case types.CodeDuplicate, types.CodeRosterFull, types.CodeOnHold, types.CodeSamePlayer,
		types.CodeHardCap, types.CodeNothingToUndo, types.CodeNothingToRedo:
		return http.StatusConflict
	case types.CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case types.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}
