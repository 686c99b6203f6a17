package middleware

import (
	"strconv"
	"strings"
	"time"

	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request correlation id in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDContextKey = "request_id"

// Query keys whose values never reach the logs
var sensitiveQueryParams = map[string]bool{
	"token": true, "secret": true, "key": true, "auth": true,
	"api_key": true, "apikey": true, "signature": true,
}

// ObservabilityMiddleware records request metrics and writes one log line per request.
// Ledger rejections are logged with their kind so they can be told apart from faults.
func ObservabilityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Header(RequestIDHeader, requestID)

		// Route template keeps label cardinality bounded
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		active := metrics.ActiveRequests.WithLabelValues(method, route)
		active.Inc()
		defer active.Dec()

		c.Next()

		duration := metrics.MeasureDuration(start)
		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)

		metrics.HTTPRequestDuration.WithLabelValues(method, route, statusStr).Observe(duration)
		metrics.HTTPRequestTotal.WithLabelValues(method, route, statusStr).Inc()

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("route", route),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("response_size", c.Writer.Size()),
		}
		if caller, err := CallerAddress(c); err == nil {
			fields = append(fields, zap.String("caller", caller.String()))
		}
		if status >= 400 {
			fields = append(fields, errorFields(c)...)
		}

		logger.LogHTTPRequest(method, c.Request.URL.Path, status, duration, fields...)
	}
}

// RequestID returns the correlation id assigned by ObservabilityMiddleware
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

func errorFields(c *gin.Context) []zap.Field {
	var fields []zap.Field

	if query := c.Request.URL.Query(); len(query) > 0 {
		sanitized := make(map[string]string, len(query))
		for k, v := range query {
			if !sensitiveQueryParams[strings.ToLower(k)] && len(v) > 0 {
				sanitized[k] = v[0]
			}
		}
		if len(sanitized) > 0 {
			fields = append(fields, zap.Any("query_params", sanitized))
		}
	}

	if last := c.Errors.Last(); last != nil {
		if kind := apperrors.KindOf(last.Err); kind != "" {
			fields = append(fields, zap.String("code", string(kind)))
		}
		fields = append(fields, zap.String("error", c.Errors.String()))
	}
	return fields
}
