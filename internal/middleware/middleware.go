package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// CORS middleware for handling Cross-Origin Resource Sharing
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ErrorResponse is the JSON body written for handled request errors
type ErrorResponse struct {
	Error            string            `json:"error"`
	Message          string            `json:"message,omitempty"`
	ValidationErrors []ValidationError `json:"validation_errors,omitempty"`
	RequestID        string            `json:"request_id,omitempty"`
	Timestamp        string            `json:"timestamp"`
}

// NewErrorResponse stamps an error body with the request id and time
func NewErrorResponse(c *gin.Context, errMsg, message string) ErrorResponse {
	return ErrorResponse{
		Error:     errMsg,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ErrorHandler renders errors attached with c.Error when the handler did
// not already write a response
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"error":      err.Error(),
		}).Error("Request error")

		if c.Writer.Written() {
			return
		}

		var maxBytesErr *http.MaxBytesError
		var validationErrs validator.ValidationErrors
		switch {
		case errors.As(err.Err, &maxBytesErr):
			c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c, "Request too large", err.Error()))
		case errors.As(err.Err, &validationErrs):
			resp := NewErrorResponse(c, "Validation failed", "Request validation failed")
			resp.ValidationErrors = formatValidationErrors(validationErrs)
			c.JSON(http.StatusBadRequest, resp)
		case err.Type == gin.ErrorTypeBind:
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request format", err.Error()))
		case err.Type == gin.ErrorTypePublic:
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error(), ""))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Internal server error", ""))
		}
	}
}
