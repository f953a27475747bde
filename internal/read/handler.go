package read

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/healthbridge-lab/healthbridge/internal/auth"
	httperr "github.com/healthbridge-lab/healthbridge/internal/core/errors"
	"github.com/healthbridge-lab/healthbridge/internal/core/metric"
	"github.com/healthbridge-lab/healthbridge/internal/request"
	"github.com/healthbridge-lab/healthbridge/internal/store"
)

// RegisterRoutes registers the read routes. Responses are bare JSON arrays.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/read/:metric", s.HandleRead)
	r.GET("/v1/read/:metric/daily", s.HandleReadDay)
}

// HandleRead handles GET /v1/read/:metric?date_from=&date_to=&limit=
func (s *Service) HandleRead(c *gin.Context) {
	args, ok := bindReadArgs(c)
	if !ok {
		return
	}

	req, err := request.ParseRead(args, s.registry, s.nowFn())
	if err != nil {
		writeReadError(c, err)
		return
	}

	samples, err := s.Read(c.Request.Context(), req)
	if err != nil {
		writeReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, samples)
}

// HandleReadDay handles GET /v1/read/:metric/daily. The date and limit
// parameters of the plain read route are accepted but ignored; the window
// is a fixed number of trailing days.
func (s *Service) HandleReadDay(c *gin.Context) {
	buckets, err := s.ReadDay(c.Request.Context(), request.Read{
		Metric: metric.Type(c.Param("metric")),
	})
	if err != nil {
		writeReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// bindReadArgs extracts the wire arguments of a read call from path and
// query parameters, writing the error response itself on malformed input.
func bindReadArgs(c *gin.Context) (request.ReadArgs, bool) {
	args := request.ReadArgs{Metric: c.Param("metric")}

	for _, p := range []struct {
		name string
		dst  **int64
	}{
		{"date_from", &args.DateFrom},
		{"date_to", &args.DateTo},
	} {
		raw, present := c.GetQuery(p.name)
		if !present {
			continue
		}
		millis, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeBadParam(c, p.name, raw)
			return request.ReadArgs{}, false
		}
		*p.dst = &millis
	}

	if raw, present := c.GetQuery("limit"); present {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeBadParam(c, "limit", raw)
			return request.ReadArgs{}, false
		}
		args.Limit = &limit
	}

	return args, true
}

func writeBadParam(c *gin.Context, name, value string) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidRequestError,
		Message:   "Invalid read request",
		Details:   "parameter " + name + " is not a valid integer: " + value,
	})
}

func writeReadError(c *gin.Context, err error) {
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
			Message:   "Invalid read request",
			Details:   err.Error(),
		})
	case errors.Is(err, auth.ErrAuthorizationFailed):
		c.JSON(http.StatusForbidden, httperr.ErrorResponse{
			ErrorType: httperr.HttpAuthorizationError,
			Message:   "Authorization flow failed",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrUnsupportedSample):
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnsupportedSampleError,
			Message:   "Sample representation is not supported",
			Details:   err.Error(),
		})
	case errors.Is(err, ErrQueryFailed):
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpQueryFailedError,
			Message:   "Query execution failed",
			Details:   err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   "Read operation failed",
			Details:   err.Error(),
		})
	}
}
