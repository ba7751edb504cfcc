package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// FormatAmount renders a sale amount the way it appears in member
// notifications and calendar entries, e.g. "$250" or "COMPED".
func FormatAmount(amount float64, isComp bool) string {
	if isComp {
		return "COMPED"
	}
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("$%d", int64(amount))
	}
	return fmt.Sprintf("$%.2f", amount)
}
