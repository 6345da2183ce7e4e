package api

import (
	"log"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

const requestIDKey = "request_id"

var requestDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
	Name: "http_request_seconds",
	Help: "Time spent serving HTTP requests",
}, []string{"route", "status"})

func init() {
	prometheus.MustRegister(requestDuration)
}

// RequestID makes sure every request carries an X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Logger writes one line per request and records its latency.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(latency.Seconds())

		log.Printf("[HTTP] request_id=%s method=%s path=%s status=%d latency_ms=%.3f",
			GetRequestID(c),
			c.Request.Method,
			c.Request.URL.Path,
			status,
			float64(latency.Microseconds())/1000.0,
		)
	}
}
