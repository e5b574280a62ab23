package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Data:    data,
		Message: message,
	})
}

// RateLimited answers 429 with the number of seconds the client should wait
// before retrying, rounded up so a retry at the advertised time succeeds.
func RateLimited(c *gin.Context, retryAfterSeconds int64) {
	c.JSON(http.StatusTooManyRequests, Response{
		Code:    -1,
		Data:    gin.H{"retry_after": retryAfterSeconds},
		Message: "too many attempts, slow down",
	})
}

func Error(c *gin.Context, code int, err interface{}) {
	msg := ""
	switch e := err.(type) {
	case string:
		msg = e
	case error:
		msg = e.Error()
	default:
		msg = "Internal Server Error"
	}

	zap.S().Errorf("API Error: %s", msg)

	c.JSON(code, Response{
		Code:    -1,
		Data:    nil,
		Message: msg,
	})
}
