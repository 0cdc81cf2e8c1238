package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"go_subdns/internal/model"
)

// APILogRecorder persists request audit rows
type APILogRecorder interface {
	Record(ctx context.Context, entry *model.APILog)
}

// APILog records authenticated requests once the handler has finished
func APILog(recorder APILogRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		uid := CurrentUserID(c)
		if uid == 0 {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		recorder.Record(context.WithoutCancel(c.Request.Context()), &model.APILog{
			UserID:     &uid,
			Method:     c.Request.Method,
			Path:       path,
			Status:     c.Writer.Status(),
			IP:         c.ClientIP(),
			DurationMs: time.Since(start).Milliseconds(),
			RequestID:  c.GetString(KeyRequestID),
		})
	}
}
