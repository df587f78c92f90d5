package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
)

const (
	// RequestIDHeader carries the request id in both directions
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "requestID"
	loggerKey    = "logger"
)

// RequestMiddleware tags every request with an id and a request-scoped logger
type RequestMiddleware struct {
	logger logging.Logger
}

// NewRequestMiddleware creates a new request middleware
func NewRequestMiddleware(logger logging.Logger) *RequestMiddleware {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &RequestMiddleware{
		logger: logger,
	}
}

// Handle assigns the request id, stores the logger in the context and logs the finished request
func (m *RequestMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		logger := logging.With(m.logger, "requestId", requestID)
		c.Set(requestIDKey, requestID)
		c.Set(loggerKey, logger)
		c.Request = c.Request.WithContext(logging.NewContext(c.Request.Context(), logger))
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()

		logger.Info("Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"clientIP", c.ClientIP(),
		)
	}
}

// Logger returns the request-scoped logger, or fallback outside of the middleware
func Logger(c *gin.Context, fallback logging.Logger) logging.Logger {
	if value, ok := c.Get(loggerKey); ok {
		if logger, ok := value.(logging.Logger); ok {
			return logger
		}
	}
	if fallback == nil {
		return logging.NopLogger
	}
	return fallback
}

// RequestID returns the id assigned to the current request
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
