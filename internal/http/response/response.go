package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Envelope wraps every JSON body the API returns.
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
	Timestamp  string      `json:"timestamp"`
}

var now = time.Now

func New(status int, message string, data interface{}) Envelope {
	return Envelope{
		Success:    status >= 200 && status < 300,
		StatusCode: status,
		Message:    message,
		Data:       data,
		Timestamp:  now().UTC().Format(time.RFC3339),
	}
}

func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, New(status, message, data))
}

// Error writes the envelope and aborts the remaining handlers.
func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, New(status, message, nil))
}
