package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/grammarcheck/internal/common"
	"github.com/gin-gonic/gin"
)

var (
	errBadContentType = errors.New("request must have Content-Type: application/json")
	errBadBody        = errors.New("invalid request body")
	errRateLimited    = errors.New("too many requests")
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{errBadContentType, http.StatusUnsupportedMediaType, ""},
	{errBadBody, http.StatusBadRequest, ""},
	{errRateLimited, http.StatusTooManyRequests, ""},
	{common.ErrorInvalidInput, http.StatusBadRequest, ""},
	{common.ErrorAlreadyExists, http.StatusBadRequest, "email already exists"},
	{common.ErrPasswordMismatch, http.StatusBadRequest, ""},
	{common.ErrEmptyText, http.StatusBadRequest, ""},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "invalid credentials"},
	{common.ErrMissingAuthHeader, http.StatusUnauthorized, ""},
	{common.ErrTokenExpired, http.StatusUnauthorized, ""},
	{common.ErrInvalidToken, http.StatusForbidden, ""},
	{common.ErrorNotFound, http.StatusNotFound, "account does not exist"},
}

// statusFor maps err to a status code and the message shown to the client.
// Input errors and upstream failures pass their reason through. Anything
// unknown is an internal error and its text is not exposed.
func statusFor(err error) (int, string) {
	var inputErr *common.InputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, inputErr.Reason
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			msg := m.message
			if msg == "" {
				msg = m.err.Error()
			}
			return m.status, msg
		}
	}
	if errors.Is(err, common.ErrUpstream) {
		return http.StatusInternalServerError, err.Error()
	}
	return http.StatusInternalServerError, common.ErrorInternal.Error()
}

// abortWithError writes {"error": msg} and stops the handler chain.
func (s *Server) abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
