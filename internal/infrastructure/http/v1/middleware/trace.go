package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "leasebill/internal/core/context"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
)

// Trace middleware extracts or generates request and trace ids.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := appctx.NewTraceContext()
		if v := c.GetHeader(HeaderRequestID); v != "" {
			tc.RequestID = v
		}
		if v := c.GetHeader(HeaderTraceID); v != "" {
			tc.TraceID = v
		}
		requestID, traceID := tc.RequestID, tc.TraceID

		c.Request = c.Request.WithContext(appctx.WithTrace(c.Request.Context(), tc))

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}
