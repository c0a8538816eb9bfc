package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/gyh/gyh-api/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    interface{}      `json:"data,omitempty"`
	Error   *appErrors.Error `json:"error,omitempty"`
}

// JSON sends a success response wrapping data in the envelope.
func JSON(c *gin.Context, status int, message string, data interface{}) {
	noStore(c)
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// Fields sends a flat success object. The success and message keys are always set;
// the remaining top-level keys come from fields.
func Fields(c *gin.Context, status int, message string, fields gin.H) {
	noStore(c)
	body := gin.H{}
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	body["message"] = message
	c.JSON(status, body)
}

// OK responds with HTTP 200 and a bare message.
func OK(c *gin.Context, message string) {
	JSON(c, http.StatusOK, message, nil)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, message string, data interface{}) {
	JSON(c, http.StatusCreated, message, data)
}

// Error sends an error response converting the error to the common structure.
// Only the typed message is exposed; wrapped causes stay server side.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.AbortWithStatusJSON(appErr.Status, Envelope{Success: false, Message: appErr.Message, Error: appErr})
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
