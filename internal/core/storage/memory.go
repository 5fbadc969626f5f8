package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	v1 "github.com/crosstab-io/crosstab/internal/api/v1"
)

// MemoryStore is an in-memory RecordStore. Used by tests and local
// experimentation; the production store is the postgres adapter.
type MemoryStore struct {
	mu            sync.RWMutex
	sales         []v1.SalesTransaction
	orders        []v1.FoodOrder
	subscriptions []v1.Subscription
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// row is the generic column view of one record.
type row map[string]interface{}

func salesRow(r v1.SalesTransaction) row {
	return row{
		"product_name":   r.ProductName,
		"category":       r.Category,
		"amount":         r.Amount,
		"quantity":       r.Quantity,
		"region":         r.Region,
		"customer_id":    r.CustomerID,
		"payment_method": r.PaymentMethod,
		"sale_date":      r.SaleDate,
	}
}

func orderRow(r v1.FoodOrder) row {
	return row{
		"order_id":              r.OrderID,
		"restaurant_name":       r.RestaurantName,
		"cuisine_type":          r.CuisineType,
		"order_amount":          r.OrderAmount,
		"delivery_fee":          r.DeliveryFee,
		"tip_amount":            r.TipAmount,
		"total_amount":          r.TotalAmount,
		"customer_id":           r.CustomerID,
		"city":                  r.City,
		"delivery_status":       r.DeliveryStatus,
		"order_date":            r.OrderDate,
		"delivery_time_minutes": r.DeliveryTimeMinutes,
	}
}

func subscriptionRow(r v1.Subscription) row {
	return row{
		"subscription_id":     r.SubscriptionID,
		"customer_id":         r.CustomerID,
		"plan_name":           r.PlanName,
		"plan_type":           r.PlanType,
		"amount":              r.Amount,
		"status":              r.Status,
		"currency":            r.Currency,
		"billing_cycle_start": r.BillingCycleStart,
		"billing_cycle_end":   r.BillingCycleEnd,
		"mrr":                 r.MRR,
	}
}

func (m *MemoryStore) tableRows(table string) ([]row, error) {
	switch table {
	case "sales_transactions":
		rows := make([]row, 0, len(m.sales))
		for _, r := range m.sales {
			rows = append(rows, salesRow(r))
		}
		return rows, nil
	case "food_orders":
		rows := make([]row, 0, len(m.orders))
		for _, r := range m.orders {
			rows = append(rows, orderRow(r))
		}
		return rows, nil
	case "subscriptions":
		rows := make([]row, 0, len(m.subscriptions))
		for _, r := range m.subscriptions {
			rows = append(rows, subscriptionRow(r))
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unknown table %q", table)
}

func matches(r row, preds []Predicate) bool {
	for _, p := range preds {
		value, ok := r[p.Column]
		if !ok {
			return false
		}
		switch p.Op {
		case OpEq:
			if fmt.Sprint(value) != fmt.Sprint(p.Value) {
				return false
			}
		case OpGTE:
			ts, bound, ok := timePair(value, p.Value)
			if !ok || ts.Before(bound) {
				return false
			}
		case OpLTE:
			ts, bound, ok := timePair(value, p.Value)
			if !ok || ts.After(bound) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func timePair(value, bound interface{}) (time.Time, time.Time, bool) {
	ts, ok1 := value.(time.Time)
	b, ok2 := bound.(time.Time)
	return ts, b, ok1 && ok2
}

func numeric(r row, column string) float64 {
	switch v := r[column].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func reduce(fn string, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch fn {
	case FnSum, FnAvg:
		total := 0.0
		for _, v := range values {
			total += v
		}
		if fn == FnAvg {
			return total / float64(len(values))
		}
		return total
	case FnMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case FnMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	}
	return 0
}

func (m *MemoryStore) matchingRows(table string, preds []Predicate) ([]row, error) {
	rows, err := m.tableRows(table)
	if err != nil {
		return nil, err
	}
	matched := make([]row, 0, len(rows))
	for _, r := range rows {
		if matches(r, preds) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Aggregate computes fn(column) over the matching records; 0 when empty.
func (m *MemoryStore) Aggregate(_ context.Context, table, fn, column string, preds []Predicate) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.matchingRows(table, preds)
	if err != nil {
		return 0, err
	}
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		values = append(values, numeric(r, column))
	}
	return reduce(fn, values), nil
}

// AggregateGrouped computes fn(column) per group key, ordered by key.
func (m *MemoryStore) AggregateGrouped(_ context.Context, table, fn, column, groupColumn string, preds []Predicate) ([]GroupValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.matchingRows(table, preds)
	if err != nil {
		return nil, err
	}

	partitions := make(map[string][]float64)
	for _, r := range rows {
		key := fmt.Sprint(r[groupColumn])
		partitions[key] = append(partitions[key], numeric(r, column))
	}

	return sortedGroups(partitions, func(values []float64) float64 {
		return reduce(fn, values)
	}), nil
}

// Count counts the matching records.
func (m *MemoryStore) Count(_ context.Context, table string, preds []Predicate) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.matchingRows(table, preds)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// CountGrouped counts records per group key, ordered by key.
func (m *MemoryStore) CountGrouped(_ context.Context, table, groupColumn string, preds []Predicate) ([]GroupValue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, err := m.matchingRows(table, preds)
	if err != nil {
		return nil, err
	}

	partitions := make(map[string][]float64)
	for _, r := range rows {
		key := fmt.Sprint(r[groupColumn])
		partitions[key] = append(partitions[key], 1)
	}

	return sortedGroups(partitions, func(values []float64) float64 {
		return float64(len(values))
	}), nil
}

func sortedGroups(partitions map[string][]float64, valueOf func([]float64) float64) []GroupValue {
	keys := make([]string, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]GroupValue, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, GroupValue{Key: key, Value: valueOf(partitions[key])})
	}
	return groups
}

// InsertSalesTransactions appends sales records.
func (m *MemoryStore) InsertSalesTransactions(_ context.Context, records []v1.SalesTransaction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sales = append(m.sales, records...)
	return len(records), nil
}

// UpsertFoodOrders inserts food orders, skipping duplicate order ids.
func (m *MemoryStore) UpsertFoodOrders(_ context.Context, records []v1.FoodOrder) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]bool, len(m.orders))
	for _, r := range m.orders {
		existing[r.OrderID] = true
	}

	inserted, skipped := 0, 0
	for _, r := range records {
		if existing[r.OrderID] {
			skipped++
			continue
		}
		existing[r.OrderID] = true
		m.orders = append(m.orders, r)
		inserted++
	}
	return inserted, skipped, nil
}

// UpsertSubscriptions inserts subscriptions, skipping duplicate subscription ids.
func (m *MemoryStore) UpsertSubscriptions(_ context.Context, records []v1.Subscription) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := make(map[string]bool, len(m.subscriptions))
	for _, r := range m.subscriptions {
		existing[r.SubscriptionID] = true
	}

	inserted, skipped := 0, 0
	for _, r := range records {
		if existing[r.SubscriptionID] {
			skipped++
			continue
		}
		existing[r.SubscriptionID] = true
		m.subscriptions = append(m.subscriptions, r)
		inserted++
	}
	return inserted, skipped, nil
}
