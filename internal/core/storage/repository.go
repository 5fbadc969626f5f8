package storage

import (
	"context"

	v1 "github.com/crosstab-io/crosstab/internal/api/v1"
)

// Predicate is one WHERE constraint produced by the filter builder.
// Column names are only ever taken from a registered domain descriptor;
// the store binds Value as a placeholder, never as text.
type Predicate struct {
	Column string
	Op     Op
	Value  interface{}
}

// Op is a predicate comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGTE Op = ">="
	OpLTE Op = "<="
)

// SQL reduction functions the store knows how to run. count has its own
// store methods because it ignores the target column entirely.
const (
	FnSum = "SUM"
	FnAvg = "AVG"
	FnMin = "MIN"
	FnMax = "MAX"
)

// GroupValue is one (group key, aggregate value) pair of a grouped query.
type GroupValue struct {
	Key   string
	Value float64
}

// RecordStore defines the persistence capability the aggregation core calls
// into. All query methods are read-only; the write methods back the import
// and seed surfaces.
type RecordStore interface {
	// Aggregate computes fn(column) over the records matching preds.
	// An empty match set yields 0, never an error.
	Aggregate(ctx context.Context, table, fn, column string, preds []Predicate) (float64, error)

	// AggregateGrouped computes fn(column) per distinct value of groupColumn.
	// Results are ordered by group key so repeated calls over a fixed record
	// set return partitions in the same positions.
	AggregateGrouped(ctx context.Context, table, fn, column, groupColumn string, preds []Predicate) ([]GroupValue, error)

	// Count counts the records matching preds.
	Count(ctx context.Context, table string, preds []Predicate) (int64, error)

	// CountGrouped counts records per distinct value of groupColumn.
	CountGrouped(ctx context.Context, table, groupColumn string, preds []Predicate) ([]GroupValue, error)

	// InsertSalesTransactions appends sales records. Sales has no natural
	// dedup key, so imports always append.
	InsertSalesTransactions(ctx context.Context, records []v1.SalesTransaction) (int, error)

	// UpsertFoodOrders inserts food orders, skipping rows whose order_id
	// already exists. Returns (inserted, skipped).
	UpsertFoodOrders(ctx context.Context, records []v1.FoodOrder) (int, int, error)

	// UpsertSubscriptions inserts subscriptions, skipping rows whose
	// subscription_id already exists. Returns (inserted, skipped).
	UpsertSubscriptions(ctx context.Context, records []v1.Subscription) (int, int, error)
}
