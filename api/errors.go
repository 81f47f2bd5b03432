package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/warp/clientdesk/desk"
	"go.uber.org/zap"
)

// writeErr maps the desk error taxonomy onto HTTP status codes:
//
//	ValidationError        -> 400
//	NotFoundError          -> 404
//	ErrServiceUnavailable  -> 501
//	ServiceError           -> 500, transport message passed through
//	anything else          -> 500
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *desk.ValidationError
		nf *desk.NotFoundError
		se *desk.ServiceError
	)

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message, ve.Field)
	case errors.As(err, &nf):
		writeError(w, http.StatusNotFound, notFoundMessage(nf.Resource), "")
	case errors.Is(err, desk.ErrServiceUnavailable):
		writeError(w, http.StatusNotImplemented, err.Error(), "")
	case errors.As(err, &se):
		h.logServerError(r, err)
		writeError(w, http.StatusInternalServerError, se.Error(), se.Service)
	default:
		h.logServerError(r, err)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

func (h *Handler) logServerError(r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
}

// notFoundMessage turns "client" into "Client not found".
func notFoundMessage(resource string) string {
	if resource == "" {
		return "Not found"
	}
	return strings.ToUpper(resource[:1]) + resource[1:] + " not found"
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}
