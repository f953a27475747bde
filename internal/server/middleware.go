package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httperr "github.com/healthbridge-lab/healthbridge/internal/core/errors"
	"github.com/healthbridge-lab/healthbridge/internal/store"
)

// RequestIDHeader carries the per-request correlation id. An inbound value
// is kept; otherwise one is generated.
const RequestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// CapabilityGate rejects requests outright when health data cannot be
// served on this deployment, before any handler runs. Initialization
// failures are not gated here; handlers surface those per call.
func CapabilityGate(handle *store.Lazy) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := handle.Get()
		if err == nil && !st.Available(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusNotImplemented, httperr.ErrorResponse{
				ErrorType: httperr.HttpNotSupportedError,
				Message:   "Health data is not available on this device",
			})
			return
		}
		c.Next()
	}
}
