package server

import (
	"errors"
	"net/http"

	"crypto-advisor/src/helpers"

	"github.com/gin-gonic/gin"
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool                 `json:"success"`
	Data    interface{}          `json:"data,omitempty"`
	Message string               `json:"message,omitempty"`
	Errors  []helpers.FieldError `json:"errors,omitempty"`
}

// -----------------------------------------------------------------------------

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// -----------------------------------------------------------------------------

func respondMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, envelope{Success: status < http.StatusBadRequest, Message: msg})
}

// -----------------------------------------------------------------------------

// respondError classifies err and writes the matching status and message.
// Internal details are hidden in production.
func (s *APIServer) respondError(c *gin.Context, err error) {
	status := helpers.HTTPStatus(err)
	body := envelope{Message: helpers.PublicMessage(err, s.production)}

	var validation *helpers.ValidationError
	if errors.As(err, &validation) {
		body.Errors = validation.Fields
	}

	if status >= http.StatusInternalServerError {
		s.Logger.Error("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, body)
}

// -----------------------------------------------------------------------------

// bindJSON decodes the request body into dst. It writes the error response
// itself and reports whether the handler should continue.
func (s *APIServer) bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondMessage(c, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	s.respondError(c, helpers.NewValidation("Invalid JSON body",
		helpers.FieldError{Field: "body", Message: err.Error()}))
	return false
}
