package response

import (
	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON response
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	EmailSent *bool       `json:"emailSent,omitempty"`
	Contact   interface{} `json:"contact,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Success sends a success response
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Submission sends the outcome of a contact form submission. contact is
// omitted when nothing was stored.
func Submission(c *gin.Context, code int, success bool, message string, emailSent bool, contact interface{}) {
	c.JSON(code, Response{
		Success:   success,
		Message:   message,
		EmailSent: &emailSent,
		Contact:   contact,
		RequestID: requestID(c),
	})
}

// Error sends an error response
func Error(c *gin.Context, code int, message string, errs interface{}) {
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		Errors:    errs,
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get("RequestID")
	idStr, _ := reqID.(string)
	return idStr
}
