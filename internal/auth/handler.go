package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	httperr "github.com/healthbridge-lab/healthbridge/internal/core/errors"
	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
	"github.com/healthbridge-lab/healthbridge/internal/request"
	"github.com/healthbridge-lab/healthbridge/internal/store"
)

// RegisterRoutes registers the permission-flow routes. The response bodies
// are bare JSON booleans, matching the boundary contract of the method
// channel these routes stand in for.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/permissions", s.HandleHasPermissions)
	r.POST("/v1/permissions", s.HandleRequestPermissions)
	r.DELETE("/v1/permissions", s.HandleRevokePermissions)
	r.GET("/v1/permissions/authorized", s.HandleIsAuthorized)
}

// HandleHasPermissions handles GET /v1/permissions?metrics=steps,energy
func (s *Service) HandleHasPermissions(c *gin.Context) {
	perms, ok := bindPermissions(c, metricNames(c.QueryArray("metrics")), s.registry)
	if !ok {
		return
	}

	granted, err := s.HasPermissions(c.Request.Context(), perms.Metrics)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, granted)
}

// HandleRequestPermissions handles POST /v1/permissions with body
// {"metrics": ["steps", ...]}.
func (s *Service) HandleRequestPermissions(c *gin.Context) {
	var body struct {
		Metrics []string `json:"metrics" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid request body",
			Details:   err.Error(),
		})
		return
	}

	perms, ok := bindPermissions(c, body.Metrics, s.registry)
	if !ok {
		return
	}

	granted, err := s.RequestPermissions(c.Request.Context(), perms.Metrics)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, granted)
}

// HandleRevokePermissions handles DELETE /v1/permissions. Always succeeds;
// the store has no programmatic revocation.
func (s *Service) HandleRevokePermissions(c *gin.Context) {
	if err := s.RevokePermissions(); err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, true)
}

// HandleIsAuthorized handles GET /v1/permissions/authorized
func (s *Service) HandleIsAuthorized(c *gin.Context) {
	authorized, err := s.IsAuthorized(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, authorized)
}

// bindPermissions parses a metric name list and writes the error response
// itself when parsing fails.
func bindPermissions(c *gin.Context, names []string, reg *metric.Registry) (request.Permissions, bool) {
	perms, err := request.ParsePermissions(names, reg)
	if err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid permissions request",
			Details:   err.Error(),
		})
		return request.Permissions{}, false
	}
	return perms, true
}

// metricNames flattens repeated query parameters and comma-separated lists.
func metricNames(values []string) []string {
	var names []string
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, httperr.ErrorResponse{
			ErrorType: httperr.HttpStoreUnavailableError,
			Message:   "Health store is unavailable",
			Details:   err.Error(),
		})
	case errors.Is(err, metric.ErrUnknownMetric), errors.Is(err, request.ErrInvalid):
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidRequestError,
			Message:   "Invalid permissions request",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrAuthorizationFailed):
		c.JSON(http.StatusForbidden, httperr.ErrorResponse{
			ErrorType: httperr.HttpAuthorizationError,
			Message:   "Authorization flow failed",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Permission operation failed",
			Details:   err.Error(),
		})
	}
}
