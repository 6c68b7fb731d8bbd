package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pennywise/internal/auth"
	"pennywise/internal/core"
	"pennywise/internal/gateway"
	"pennywise/internal/ledger"
	"pennywise/internal/log"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// statusFor maps an operation error to its HTTP status.
func statusFor(err error) int {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotAuthenticated), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrNotFound), errors.Is(err, ledger.ErrNoPreviousLimits):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotLoaded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Server errors carry the session banner
// (or fallback when there is no session) rather than the internal message.
func (s *Server) respondError(c *gin.Context, sess *ledger.Session, fallback string, err error) {
	status := statusFor(err)
	body := errorResponse{}

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		body.Error = "validation failed"
		body.Fields = ve.Fields
	case errors.Is(err, ledger.ErrNoPreviousLimits):
		body.Error = ledger.MsgNoPreviousLimits
	case status == http.StatusInternalServerError || status == http.StatusServiceUnavailable:
		body.Error = fallback
		if sess != nil && sess.Error() != "" {
			body.Error = sess.Error()
		}
	default:
		body.Error = http.StatusText(status)
		if errors.Is(err, errBadBody) {
			body.Error = errBadBody.Error()
		}
	}

	logger := s.requestLogger(c)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), "Request failed",
			log.FieldError, err.Error(),
			log.FieldPath, c.FullPath(),
			log.FieldStatusCode, status)
	} else {
		logger.DebugContext(c.Request.Context(), "Request rejected",
			log.FieldError, err.Error(),
			log.FieldPath, c.FullPath(),
			log.FieldStatusCode, status)
	}
	c.AbortWithStatusJSON(status, body)
}
