package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ukaji3/sheetbridge-go/internal/logging"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/output"
)

// errBadRequest marks a request body that could not be read or decoded.
var errBadRequest = errors.New("malformed request body")

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var (
		parseErr    *sheetbridge.ParseError
		resourceErr *sheetbridge.ExternalResourceError
	)
	switch {
	case errors.Is(err, sheetbridge.ErrRejectedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, sheetbridge.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sheetbridge.ErrFormatMismatch),
		errors.As(err, &parseErr),
		errors.Is(err, sheetbridge.ErrUnknownSaveFormat),
		errors.Is(err, sheetbridge.ErrUnknownEncoding),
		errors.Is(err, output.ErrEmptySnapshot):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, sheetbridge.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &resourceErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error and writes the user-facing message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := sheetbridge.Message(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
