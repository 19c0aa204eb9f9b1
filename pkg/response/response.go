package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-events/backend/internal/apperr"
)

// Error codes carried next to the message on failures.
const (
	CodeValidationFailed   = "validation_failed"
	CodeForeignKey         = "foreign_key_violation"
	CodeInvalidRequestBody = "invalid_request_body"
	CodeNotFound           = "not_found"
	CodeCascadeIncomplete  = "cascade_incomplete"
	CodeInternal           = "internal_error"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Error   string              `json:"error,omitempty"`
	Code    string              `json:"code,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err, Code: CodeInvalidRequestBody})
}

// ValidationFailed sends 400 with one entry per failing field.
func ValidationFailed(c *gin.Context, fields []apperr.FieldError) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: "validation failed", Code: CodeValidationFailed, Errors: fields})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err, Code: CodeNotFound})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err, Code: CodeInternal})
}

// Error maps a store error onto the response taxonomy. Unexpected errors are logged
// and answered with a generic 500; their text never reaches the client.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	var (
		ve *apperr.ValidationError
		fk *apperr.ForeignKeyError
		nf *apperr.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		ValidationFailed(c, ve.Fields)
	case errors.As(err, &fk):
		c.JSON(http.StatusBadRequest, Body{
			Success: false,
			Error:   fk.Error(),
			Code:    CodeForeignKey,
			Errors:  []apperr.FieldError{{Field: fk.Field, Message: fk.Entity + " not found"}},
		})
	case errors.As(err, &nf):
		NotFound(c, nf.Error())
	case errors.Is(err, apperr.ErrCascadeIncomplete):
		logger.Error("cascade delete incomplete", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Body{Success: false, Error: "delete may be incomplete", Code: CodeCascadeIncomplete})
	default:
		logger.Error("request failed", zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path), zap.Error(err))
		Internal(c, "Server error")
	}
}
