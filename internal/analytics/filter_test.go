package analytics

import (
	"testing"
	"time"

	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func salesDescriptor(t *testing.T) domain.Descriptor {
	t.Helper()
	d, err := domain.NewRegistry().Resolve(domain.TypeSales)
	require.NoError(t, err)
	return d
}

func TestBuildPredicates_EmitsBoundParamsInBindingOrder(t *testing.T) {
	d := salesDescriptor(t)

	preds := BuildPredicates(d, FilterSet{Params: map[string]string{
		"customer_id": "CUST_7",
		"category":    "Electronics",
		"region":      "North",
	}})

	require.Equal(t, []storage.Predicate{
		{Column: "category", Op: storage.OpEq, Value: "Electronics"},
		{Column: "region", Op: storage.OpEq, Value: "North"},
		{Column: "customer_id", Op: storage.OpEq, Value: "CUST_7"},
	}, preds)
}

func TestBuildPredicates_IgnoresUnboundAndEmptyParams(t *testing.T) {
	d := salesDescriptor(t)

	// city and delivery_status belong to food_delivery; the filter set is
	// shared across domains so they are dropped silently, not rejected.
	preds := BuildPredicates(d, FilterSet{Params: map[string]string{
		"city":            "Mumbai",
		"delivery_status": "delivered",
		"category":        "",
		"region":          "North",
	}})

	require.Equal(t, []storage.Predicate{
		{Column: "region", Op: storage.OpEq, Value: "North"},
	}, preds)
}

func TestBuildPredicates_DateRangeUsesDomainDateColumn(t *testing.T) {
	d := salesDescriptor(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	preds := BuildPredicates(d, FilterSet{StartDate: &start, EndDate: &end})

	require.Equal(t, []storage.Predicate{
		{Column: "sale_date", Op: storage.OpGTE, Value: start},
		{Column: "sale_date", Op: storage.OpLTE, Value: end},
	}, preds)
}

func TestBuildPredicates_EmptyFilterSetEmitsNothing(t *testing.T) {
	d := salesDescriptor(t)
	require.Empty(t, BuildPredicates(d, FilterSet{}))
}

func TestFilterSet_AppliedEchoesNonEmptySubset(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	fs := FilterSet{
		Params: map[string]string{
			"category": "Electronics",
			"region":   "",
		},
		StartDate: &start,
	}

	require.Equal(t, map[string]string{
		"category":   "Electronics",
		"start_date": "2024-01-01T00:00:00Z",
	}, fs.Applied())
}
