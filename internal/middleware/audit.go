package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studio-schedule-api/internal/models"
)

const auditResourceKey = "auditResourceID"

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Audit creates a middleware that records audit logs after successful requests.
// A failed write is attached to the context errors and never changes the response.
func Audit(recorder AuditRecorder, action, resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now().UTC()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims := Claims(c); claims != nil {
			userID = &claims.UserID
		}
		var resourceID *string
		if id := AuditResource(c); id != "" {
			resourceID = &id
		}

		body, _ := json.Marshal(map[string]interface{}{
			"path":    c.FullPath(),
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).Milliseconds(),
		})

		if err := recorder.Create(c.Request.Context(), &models.AuditLog{
			UserID:     userID,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			NewValues:  body,
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}); err != nil {
			_ = c.Error(err)
		}
	}
}

// SetAuditResource records the id of a resource created by the current request.
func SetAuditResource(c *gin.Context, id string) {
	c.Set(auditResourceKey, id)
}

// AuditResource returns the route id, falling back to the id set by SetAuditResource.
func AuditResource(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	return c.GetString(auditResourceKey)
}
