package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage"
)

// Client input errors. Handlers map these to 400-class responses via
// errors.Is; each wrapped message names the valid option set.
var (
	ErrInvalidField                  = errors.New("invalid aggregation field")
	ErrInvalidGroupField             = errors.New("invalid group_by field")
	ErrMissingGroupField             = errors.New("group_by is required")
	ErrUnsupportedGroupedAggregation = errors.New("aggregation type does not support group_by")
)

// Service is the aggregation engine: one generic query path serving all
// registered domains, parameterized by their descriptors.
type Service struct {
	registry *domain.Registry
	store    storage.RecordStore
}

// NewService creates the analytics service.
func NewService(registry *domain.Registry, store storage.RecordStore) *Service {
	return &Service{registry: registry, store: store}
}

// Registry exposes the injected registry for the HTTP layer's parameter
// parsing (filter param union, type validation).
func (s *Service) Registry() *domain.Registry {
	return s.registry
}

// Aggregate validates the request against the domain descriptor, narrows
// the record set with the filter predicates and computes the reduction.
// Validation order: domain, field, group_by, kind/group_by combination.
func (s *Service) Aggregate(ctx context.Context, req AggregationRequest) (*AggregationResponse, error) {
	d, err := s.registry.Resolve(req.Type)
	if err != nil {
		return nil, err
	}

	spec, ok := kinds[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	if !d.CanAggregate(req.Field) {
		return nil, fmt.Errorf("%w for %s: %q (must be one of %v)",
			ErrInvalidField, d.Type, req.Field, d.AggregatableFields)
	}

	if req.GroupBy != "" {
		if !d.CanGroup(req.GroupBy) {
			return nil, fmt.Errorf("%w for %s: %q (must be one of %v)",
				ErrInvalidGroupField, d.Type, req.GroupBy, d.GroupableFields)
		}
		if !spec.groupable {
			return nil, fmt.Errorf("%w: %s is ungrouped-only", ErrUnsupportedGroupedAggregation, req.Kind)
		}
	}

	preds := BuildPredicates(d, req.Filters)

	resp := &AggregationResponse{
		AnalyticsType:   string(d.Type),
		AggregationType: string(req.Kind),
		Field:           req.Field,
		FiltersApplied:  req.Filters.Applied(),
	}

	if req.GroupBy == "" {
		value, err := s.scalarAggregate(ctx, d, req.Kind, spec, req.Field, preds)
		if err != nil {
			return nil, err
		}
		resp.Value = &value
		return resp, nil
	}

	groups, err := s.groupedAggregate(ctx, d, req.Kind, spec, req.Field, req.GroupBy, preds)
	if err != nil {
		return nil, err
	}
	resp.GroupBy = req.GroupBy
	resp.Groups = groups
	return resp, nil
}

func (s *Service) scalarAggregate(ctx context.Context, d domain.Descriptor, kind Kind, spec kindSpec, field string, preds []storage.Predicate) (float64, error) {
	// count ignores the target field entirely; the field is still validated
	// upstream for a uniform request contract.
	if kind == KindCount {
		n, err := s.store.Count(ctx, d.Table, preds)
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", d.Table, err)
		}
		return float64(n), nil
	}

	value, err := s.store.Aggregate(ctx, d.Table, spec.fn, field, preds)
	if err != nil {
		return 0, fmt.Errorf("aggregate %s(%s) on %s: %w", spec.fn, field, d.Table, err)
	}
	return value, nil
}

func (s *Service) groupedAggregate(ctx context.Context, d domain.Descriptor, kind Kind, spec kindSpec, field, groupBy string, preds []storage.Predicate) ([]GroupEntry, error) {
	var (
		values []storage.GroupValue
		err    error
	)
	if kind == KindCount {
		values, err = s.store.CountGrouped(ctx, d.Table, groupBy, preds)
	} else {
		values, err = s.store.AggregateGrouped(ctx, d.Table, spec.fn, field, groupBy, preds)
	}
	if err != nil {
		return nil, fmt.Errorf("grouped aggregate on %s by %s: %w", d.Table, groupBy, err)
	}

	groups := make([]GroupEntry, 0, len(values))
	for _, gv := range values {
		groups = append(groups, GroupEntry{Group: gv.Key, Value: gv.Value})
	}
	return groups, nil
}

// ChartData reuses the grouped sum path and reshapes it into label/value
// points. The chart type only labels the output; the reduction is always
// sum(field) grouped by GroupBy. An empty match set is a valid result with
// an empty data series, never an error.
func (s *Service) ChartData(ctx context.Context, req ChartRequest) (*ChartResponse, error) {
	d, err := s.registry.Resolve(req.Type)
	if err != nil {
		return nil, err
	}

	if !d.CanAggregate(req.Field) {
		return nil, fmt.Errorf("%w for %s: %q (must be one of %v)",
			ErrInvalidField, d.Type, req.Field, d.AggregatableFields)
	}

	if req.GroupBy == "" {
		return nil, fmt.Errorf("%w for chart data", ErrMissingGroupField)
	}
	if !d.CanGroup(req.GroupBy) {
		return nil, fmt.Errorf("%w for %s: %q (must be one of %v)",
			ErrInvalidGroupField, d.Type, req.GroupBy, d.GroupableFields)
	}

	preds := BuildPredicates(d, req.Filters)

	values, err := s.store.AggregateGrouped(ctx, d.Table, storage.FnSum, req.Field, req.GroupBy, preds)
	if err != nil {
		return nil, fmt.Errorf("chart aggregate on %s by %s: %w", d.Table, req.GroupBy, err)
	}

	points := make([]ChartPoint, 0, len(values))
	for _, gv := range values {
		points = append(points, ChartPoint{
			Label:    gv.Key,
			Value:    gv.Value,
			Metadata: map[string]interface{}{},
		})
	}

	return &ChartResponse{
		AnalyticsType: string(d.Type),
		ChartType:     string(req.Chart),
		Data:          points,
		Metadata: ChartMetadata{
			Field:          req.Field,
			GroupBy:        req.GroupBy,
			FiltersApplied: req.Filters.Applied(),
			TotalPoints:    len(points),
		},
	}, nil
}

// Summary computes total, average and record count of the domain's default
// metric field under the supplied filters.
func (s *Service) Summary(ctx context.Context, t domain.Type, filters FilterSet) (*SummaryResponse, error) {
	d, err := s.registry.Resolve(t)
	if err != nil {
		return nil, err
	}

	field := d.DefaultMetricField
	preds := BuildPredicates(d, filters)

	total, err := s.store.Aggregate(ctx, d.Table, storage.FnSum, field, preds)
	if err != nil {
		return nil, fmt.Errorf("summary total on %s: %w", d.Table, err)
	}

	average, err := s.store.Aggregate(ctx, d.Table, storage.FnAvg, field, preds)
	if err != nil {
		return nil, fmt.Errorf("summary average on %s: %w", d.Table, err)
	}

	count, err := s.store.Count(ctx, d.Table, preds)
	if err != nil {
		return nil, fmt.Errorf("summary count on %s: %w", d.Table, err)
	}

	return &SummaryResponse{
		AnalyticsType:  string(d.Type),
		Field:          field,
		Total:          total,
		Average:        average,
		Count:          count,
		FiltersApplied: filters.Applied(),
	}, nil
}

// Fields returns the capability listing for one domain.
func (s *Service) Fields(t domain.Type) (*FieldsResponse, error) {
	caps, err := s.registry.Fields(t)
	if err != nil {
		return nil, err
	}
	return &FieldsResponse{
		AnalyticsType:      string(t),
		AggregatableFields: caps.Aggregatable,
		GroupableFields:    caps.Groupable,
		FilterableFields:   caps.Filterable,
	}, nil
}
