package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage"
)

// Kind is the statistical reduction applied to an aggregation target.
type Kind string

const (
	KindSum   Kind = "sum"
	KindAvg   Kind = "avg"
	KindCount Kind = "count"
	KindMin   Kind = "min"
	KindMax   Kind = "max"
)

// ErrUnknownKind is returned for an unrecognized aggregation_type value.
var ErrUnknownKind = errors.New("unknown aggregation type")

// ParseKind converts the wire value of aggregation_type into a Kind.
func ParseKind(s string) (Kind, error) {
	if _, ok := kinds[Kind(s)]; ok {
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q (must be one of sum, avg, count, min, max)", ErrUnknownKind, s)
}

// kindSpec maps a kind onto record-store behavior.
// To add a kind: add an entry here — the engine has no per-kind switches.
type kindSpec struct {
	fn        string // store reduction function; empty for count
	groupable bool   // whether group_by may be combined with this kind
}

// min/max are deliberately ungrouped-only; the engine rejects the
// combination explicitly rather than ignoring group_by.
var kinds = map[Kind]kindSpec{
	KindSum:   {fn: storage.FnSum, groupable: true},
	KindAvg:   {fn: storage.FnAvg, groupable: true},
	KindCount: {groupable: true},
	KindMin:   {fn: storage.FnMin},
	KindMax:   {fn: storage.FnMax},
}

// ChartType is an opaque presentation hint; the engine never varies the
// underlying aggregation by it.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
)

// ErrUnknownChartType is returned for an unrecognized chart_type value.
var ErrUnknownChartType = errors.New("unknown chart type")

// ParseChartType converts the wire value of chart_type into a ChartType.
func ParseChartType(s string) (ChartType, error) {
	switch ChartType(s) {
	case ChartBar, ChartLine, ChartPie:
		return ChartType(s), nil
	}
	return "", fmt.Errorf("%w: %q (must be one of bar, line, pie)", ErrUnknownChartType, s)
}

// FilterSet is the sparse, domain-agnostic filter bag of one request.
// Params may carry any domain's parameter names; the ones not bound for the
// active domain are silently ignored by the filter builder.
type FilterSet struct {
	Params    map[string]string
	StartDate *time.Time
	EndDate   *time.Time
}

// Applied returns the non-empty filter subset for echoing back to clients.
// Dates are rendered in RFC 3339.
func (fs FilterSet) Applied() map[string]string {
	applied := make(map[string]string)
	for param, value := range fs.Params {
		if value != "" {
			applied[param] = value
		}
	}
	if fs.StartDate != nil {
		applied["start_date"] = fs.StartDate.Format(time.RFC3339)
	}
	if fs.EndDate != nil {
		applied["end_date"] = fs.EndDate.Format(time.RFC3339)
	}
	return applied
}

// AggregationRequest is one validated-on-execution aggregation query.
type AggregationRequest struct {
	Type    domain.Type
	Kind    Kind
	Field   string
	GroupBy string
	Filters FilterSet
}

// GroupEntry is one (group key, value) pair of a grouped aggregation.
type GroupEntry struct {
	Group string  `json:"group"`
	Value float64 `json:"value"`
}

// AggregationResponse carries either a scalar value or grouped entries,
// plus an echo of the filters actually supplied.
type AggregationResponse struct {
	AnalyticsType   string            `json:"analytics_type"`
	AggregationType string            `json:"aggregation_type"`
	Field           string            `json:"field"`
	Value           *float64          `json:"value,omitempty"`
	GroupBy         string            `json:"group_by,omitempty"`
	Groups          []GroupEntry      `json:"groups,omitempty"`
	FiltersApplied  map[string]string `json:"filters_applied"`
}

// ChartRequest is one chart projection query. GroupBy is required here,
// unlike in AggregationRequest.
type ChartRequest struct {
	Type    domain.Type
	Chart   ChartType
	Field   string
	GroupBy string
	Filters FilterSet
}

// ChartPoint is one label/value pair of a chart series.
type ChartPoint struct {
	Label    string                 `json:"label"`
	Value    float64                `json:"value"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ChartMetadata describes how the chart series was produced.
type ChartMetadata struct {
	Field          string            `json:"field"`
	GroupBy        string            `json:"group_by"`
	FiltersApplied map[string]string `json:"filters_applied"`
	TotalPoints    int               `json:"total_points"`
}

// ChartResponse is the chart-ready payload. Data is always present, empty
// when no records match.
type ChartResponse struct {
	AnalyticsType string        `json:"analytics_type"`
	ChartType     string        `json:"chart_type"`
	Data          []ChartPoint  `json:"data"`
	Metadata      ChartMetadata `json:"metadata"`
}

// SummaryResponse reports total/average/count of the domain's default
// metric field under the supplied filters.
type SummaryResponse struct {
	AnalyticsType  string            `json:"analytics_type"`
	Field          string            `json:"field"`
	Total          float64           `json:"total"`
	Average        float64           `json:"average"`
	Count          int64             `json:"count"`
	FiltersApplied map[string]string `json:"filters_applied"`
}

// FieldsResponse is the capability listing of one domain.
type FieldsResponse struct {
	AnalyticsType      string   `json:"analytics_type"`
	AggregatableFields []string `json:"aggregatable_fields"`
	GroupableFields    []string `json:"groupable_fields"`
	FilterableFields   []string `json:"filterable_fields"`
}
