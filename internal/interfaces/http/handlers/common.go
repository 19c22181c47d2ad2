// internal/interfaces/http/handlers/common.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/pos-backend/internal/pkg/apperrors"
)

// respondError maps a service error onto an HTTP response
func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsError(err); ok {
		body := gin.H{
			"error": appErr.Error(),
			"kind":  string(appErr.Kind),
		}
		if appErr.Kind == apperrors.KindInsufficientStock {
			body["requested"] = appErr.Requested
			body["available"] = appErr.Available
		}
		c.JSON(appErr.HTTPStatus(), body)
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}

// parseIDParam parses a numeric path parameter, responding 400 on failure
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name + " parameter",
		})
		return 0, false
	}
	return uint(id), true
}
