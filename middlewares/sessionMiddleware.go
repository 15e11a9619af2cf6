package middlewares

import (
	"net/http"
	"strconv"

	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionMiddleware seeds the request context with the tenant and user
// identity the upstream gateway resolved. Authentication itself happens
// upstream; this service only consumes the headers.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId := c.Request.Header.Get("X-Business-Id")
		if businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Business-Id header is required"})
			c.Abort()
			return
		}

		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)

		if userId, err := strconv.Atoi(c.Request.Header.Get("X-User-Id")); err == nil {
			ctx = utils.SetUserIdInContext(ctx, userId)
		}
		if userName := c.Request.Header.Get("X-User-Name"); userName != "" {
			ctx = utils.SetUserNameInContext(ctx, userName)
		}

		correlationId := c.Request.Header.Get("X-Correlation-Id")
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx = utils.SetCorrelationIdInContext(ctx, correlationId)
		c.Writer.Header().Set("X-Correlation-Id", correlationId)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
