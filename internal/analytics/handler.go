package analytics

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/crosstab-io/crosstab/internal/core/domain"
	httperr "github.com/crosstab-io/crosstab/internal/core/errors"
	"github.com/gin-gonic/gin"
)

const msgInternalQueryFailure = "Failed to execute analytics query"

// Accepted layouts for start_date / end_date query parameters.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RegisterRoutes registers the analytics query API.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	api := r.Group("/api/v1")
	api.GET("/aggregate", s.HandleAggregate)
	api.GET("/chart", s.HandleChart)
	api.GET("/metrics/summary", s.HandleSummary)
	api.GET("/fields", s.HandleFields)
}

// HandleAggregate handles GET /api/v1/aggregate.
// Query parameters: analytics_type, aggregation_type, field, group_by,
// the domain filter params, start_date, end_date.
func (s *Service) HandleAggregate(c *gin.Context) {
	t, ok := s.bindAnalyticsType(c)
	if !ok {
		return
	}

	kind, err := ParseKind(c.Query("aggregation_type"))
	if err != nil {
		writeUnsupported(c, err)
		return
	}

	field := c.Query("field")
	if field == "" {
		writeInvalidQuery(c, fmt.Errorf("field is required"))
		return
	}

	filters, err := s.bindFilterSet(c)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}

	resp, err := s.Aggregate(c.Request.Context(), AggregationRequest{
		Type:    t,
		Kind:    kind,
		Field:   field,
		GroupBy: c.Query("group_by"),
		Filters: filters,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleChart handles GET /api/v1/chart.
func (s *Service) HandleChart(c *gin.Context) {
	t, ok := s.bindAnalyticsType(c)
	if !ok {
		return
	}

	chart, err := ParseChartType(c.Query("chart_type"))
	if err != nil {
		writeUnsupported(c, err)
		return
	}

	field := c.Query("field")
	if field == "" {
		writeInvalidQuery(c, fmt.Errorf("field is required"))
		return
	}

	filters, err := s.bindFilterSet(c)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}

	resp, err := s.ChartData(c.Request.Context(), ChartRequest{
		Type:    t,
		Chart:   chart,
		Field:   field,
		GroupBy: c.Query("group_by"),
		Filters: filters,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleSummary handles GET /api/v1/metrics/summary.
func (s *Service) HandleSummary(c *gin.Context) {
	t, ok := s.bindAnalyticsType(c)
	if !ok {
		return
	}

	filters, err := s.bindFilterSet(c)
	if err != nil {
		writeInvalidQuery(c, err)
		return
	}

	resp, err := s.Summary(c.Request.Context(), t, filters)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HandleFields handles GET /api/v1/fields.
func (s *Service) HandleFields(c *gin.Context) {
	t, ok := s.bindAnalyticsType(c)
	if !ok {
		return
	}

	resp, err := s.Fields(t)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// bindAnalyticsType parses the analytics_type query parameter, writing a
// 422 response (and returning ok=false) for an unrecognized value. Enum
// failures are rejected here, before the engine is ever reached.
func (s *Service) bindAnalyticsType(c *gin.Context) (domain.Type, bool) {
	t, err := domain.ParseType(c.Query("analytics_type"))
	if err != nil {
		writeUnsupported(c, err)
		return "", false
	}
	return t, true
}

// bindFilterSet collects the filter parameter union plus the date range
// from the query string. Per-domain relevance is resolved later by the
// filter builder.
func (s *Service) bindFilterSet(c *gin.Context) (FilterSet, error) {
	fs := FilterSet{Params: make(map[string]string)}

	for _, param := range s.registry.FilterParamUnion() {
		if value := c.Query(param); value != "" {
			fs.Params[param] = value
		}
	}

	if raw := c.Query("start_date"); raw != "" {
		ts, err := parseDateParam(raw)
		if err != nil {
			return FilterSet{}, fmt.Errorf("invalid start_date: %w", err)
		}
		fs.StartDate = &ts
	}
	if raw := c.Query("end_date"); raw != "" {
		ts, err := parseDateParam(raw)
		if err != nil {
			return FilterSet{}, fmt.Errorf("invalid end_date: %w", err)
		}
		fs.EndDate = &ts
	}

	return fs, nil
}

func parseDateParam(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// writeServiceError maps engine errors onto the HTTP error taxonomy.
// Client input errors carry their message (it names the valid option set);
// anything else is a 500 with a generic message only.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidField),
		errors.Is(err, ErrInvalidGroupField),
		errors.Is(err, ErrMissingGroupField),
		errors.Is(err, ErrUnsupportedGroupedAggregation):
		writeInvalidQuery(c, err)
	case errors.Is(err, domain.ErrUnknownType),
		errors.Is(err, ErrUnknownKind),
		errors.Is(err, ErrUnknownChartType):
		writeUnsupported(c, err)
	default:
		slog.Error("Analytics query failed", "error", err, "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
			ErrorType: httperr.HttpInternalError,
			Message:   msgInternalQueryFailure,
		})
	}
}

func writeInvalidQuery(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
		ErrorType: httperr.HttpInvalidQueryError,
		Message:   err.Error(),
	})
}

func writeUnsupported(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, httperr.ErrorResponse{
		ErrorType: httperr.HttpUnsupportedTypeError,
		Message:   err.Error(),
	})
}
