package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unirate/pkg/middleware/requestid"
)

const requestStartKey = "request_start"

// WithResponseMeta records when the request started so JSON responses can report timing.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// ExtractMeta returns the metadata attached to JSON envelopes: the request id and the
// time spent so far.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := make(map[string]interface{}, 2)
	if reqID := requestid.Value(c); reqID != "" {
		meta["request_id"] = reqID
	}
	if value, exists := c.Get(requestStartKey); exists {
		if start, ok := value.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
