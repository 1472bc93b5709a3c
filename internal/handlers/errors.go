package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// statusFor maps an error kind to its HTTP status. Unknown errors are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrConcurrency):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error with the status of its kind. Internal failures are logged with
// the cause and reported to the client with msg only.
func respondError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(status, gin.H{"error": msg})
		return
	}
	logger.Warn(msg, slog.String("error", err.Error()), slog.Int("status", status))
	if status == http.StatusServiceUnavailable {
		c.Header("Retry-After", "1")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON binds the body and answers 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind JSON", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return false
	}
	return true
}

// bindQuery binds query parameters and answers 400 on failure.
func bindQuery(c *gin.Context, params any) bool {
	if err := c.ShouldBindQuery(params); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return false
	}
	return true
}

// actorID returns the authenticated actor or answers 401.
func actorID(c *gin.Context) (string, bool) {
	id, ok := middleware.GetActorIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Actor ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return id, true
}

// bindOptionalJSON binds the body when one was sent.
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, req)
}
