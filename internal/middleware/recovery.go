package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linklet/linklet/internal/model"
)

// Recovery turns panics into a JSON 500 instead of a dropped
// connection, keeping the error body shape consistent with the rest
// of the API.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("panic recovered",
					slog.String("path", c.Request.URL.Path),
					slog.Any("panic", p))
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					model.ErrorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}
