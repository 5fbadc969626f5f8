package analytics

import (
	"context"
	"testing"
	"time"

	v1 "github.com/crosstab-io/crosstab/internal/api/v1"
	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage"
	"github.com/stretchr/testify/require"
)

// seededService returns a service over an in-memory store loaded with the
// standard fixture set used throughout these tests.
func seededService(t *testing.T) *Service {
	t.Helper()
	store := storage.NewMemoryStore()
	ctx := context.Background()

	saleDate := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := store.InsertSalesTransactions(ctx, []v1.SalesTransaction{
		{ProductName: "Laptop Pro", Category: "Electronics", Region: "North", Amount: 1200, Quantity: 1, PaymentMethod: "credit_card", CustomerID: "CUST_1", SaleDate: saleDate},
		{ProductName: "Smartphone X", Category: "Electronics", Region: "North", Amount: 800, Quantity: 2, PaymentMethod: "debit_card", CustomerID: "CUST_2", SaleDate: saleDate},
		{ProductName: "Smartphone X", Category: "Electronics", Region: "South", Amount: 750, Quantity: 1, PaymentMethod: "paypal", CustomerID: "CUST_3", SaleDate: saleDate.AddDate(0, 1, 0)},
		{ProductName: "Desk Lamp", Category: "Furniture", Region: "East", Amount: 300, Quantity: 3, PaymentMethod: "paypal", CustomerID: "CUST_4", SaleDate: saleDate},
		{ProductName: "Coffee Maker", Category: "Appliances", Region: "West", Amount: 150, Quantity: 1, PaymentMethod: "credit_card", CustomerID: "CUST_5", SaleDate: saleDate},
		{ProductName: "Running Shoes", Category: "Sports", Region: "North", Amount: 100, Quantity: 1, PaymentMethod: "credit_card", CustomerID: "CUST_1", SaleDate: saleDate},
	})
	require.NoError(t, err)

	orderDate := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)
	_, _, err = store.UpsertFoodOrders(ctx, []v1.FoodOrder{
		{OrderID: "ORD_1", RestaurantName: "Pizza Palace", CuisineType: "Italian", City: "Mumbai", DeliveryStatus: "delivered", OrderAmount: 20, DeliveryFee: 3, TipAmount: 2, TotalAmount: 25, OrderDate: orderDate, DeliveryTimeMinutes: 30},
		{OrderID: "ORD_2", RestaurantName: "Spice Garden", CuisineType: "Indian", City: "Delhi", DeliveryStatus: "delivered", OrderAmount: 15, DeliveryFee: 2, TipAmount: 3, TotalAmount: 20, OrderDate: orderDate, DeliveryTimeMinutes: 45},
		{OrderID: "ORD_3", RestaurantName: "Pizza Palace", CuisineType: "Italian", City: "Delhi", DeliveryStatus: "cancelled", OrderAmount: 30, DeliveryFee: 4, TipAmount: 0, TotalAmount: 34, OrderDate: orderDate, DeliveryTimeMinutes: 0},
	})
	require.NoError(t, err)

	cycleStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Annual plans store the monthly-equivalent MRR: amount / 12.
	_, _, err = store.UpsertSubscriptions(ctx, []v1.Subscription{
		{SubscriptionID: "SUB_1", PlanName: "Basic", PlanType: "monthly", Amount: 10, MRR: 10, Status: "active", Currency: "USD", CustomerID: "CUST_1", BillingCycleStart: cycleStart, BillingCycleEnd: cycleStart.AddDate(0, 1, 0)},
		{SubscriptionID: "SUB_2", PlanName: "Pro", PlanType: "annual", Amount: 300, MRR: 25, Status: "active", Currency: "USD", CustomerID: "CUST_2", BillingCycleStart: cycleStart, BillingCycleEnd: cycleStart.AddDate(1, 0, 0)},
		{SubscriptionID: "SUB_3", PlanName: "Pro", PlanType: "monthly", Amount: 30, MRR: 30, Status: "cancelled", Currency: "USD", CustomerID: "CUST_3", BillingCycleStart: cycleStart, BillingCycleEnd: cycleStart.AddDate(0, 1, 0)},
	})
	require.NoError(t, err)

	return NewService(domain.NewRegistry(), store)
}

func TestAggregate_SumUngrouped(t *testing.T) {
	svc := seededService(t)

	resp, err := svc.Aggregate(context.Background(), AggregationRequest{
		Type: domain.TypeSales, Kind: KindSum, Field: "amount",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Value)
	require.Equal(t, 3300.0, *resp.Value)
	require.Empty(t, resp.Groups)
	require.Equal(t, map[string]string{}, resp.FiltersApplied)
}

func TestAggregate_SumGroupedByRegion(t *testing.T) {
	svc := seededService(t)

	resp, err := svc.Aggregate(context.Background(), AggregationRequest{
		Type: domain.TypeSales, Kind: KindSum, Field: "amount", GroupBy: "region",
	})
	require.NoError(t, err)
	require.Nil(t, resp.Value)
	require.Equal(t, "region", resp.GroupBy)

	byRegion := make(map[string]float64)
	for _, g := range resp.Groups {
		byRegion[g.Group] = g.Value
	}
	require.Equal(t, 2100.0, byRegion["North"]) // 1200 + 800 + 100
	require.Equal(t, 750.0, byRegion["South"])
	require.Equal(t, 300.0, byRegion["East"])
	require.Equal(t, 150.0, byRegion["West"])
}

func TestAggregate_GroupedSumPartitionsAddUpToUngroupedSum(t *testing.T) {
	svc := seededService(t)
	ctx := context.Background()

	ungrouped, err := svc.Aggregate(ctx, AggregationRequest{
		Type: domain.TypeSales, Kind: KindSum, Field: "amount",
	})
	require.NoError(t, err)

	grouped, err := svc.Aggregate(ctx, AggregationRequest{
		Type: domain.TypeSales, Kind: KindSum, Field: "amount", GroupBy: "category",
	})
	require.NoError(t, err)

	sum := 0.0
	for _, g := range grouped.Groups {
		sum += g.Value
	}
	require.InDelta(t, *ungrouped.Value, sum, 1e-9)
}

func TestAggregate_GroupedCountPartitionsAddUpToUngroupedCount(t *testing.T) {
	svc := seededService(t)
	ctx := context.Background()
	filters := FilterSet{Params: map[string]string{"delivery_status": "delivered"}}

	ungrouped, err := svc.Aggregate(ctx, AggregationRequest{
		Type: domain.TypeFoodDelivery, Kind: KindCount, Field: "total_amount", Filters: filters,
	})
	require.NoError(t, err)

	grouped, err := svc.Aggregate(ctx, AggregationRequest{
		Type: domain.TypeFoodDelivery, Kind: KindCount, Field: "total_amount", GroupBy: "city", Filters: filters,
	})
	require.NoError(t, err)

	total := 0.0
	for _, g := range grouped.Groups {
		total += g.Value
	}
	require.Equal(t, *ungrouped.Value, total)
}

func TestAggregate_SumOverEmptyFilteredSetIsZero(t *testing.T) {
	svc := seededService(t)

	for _, tc := range []struct {
		analyticsType domain.Type
		field         string
		filters       FilterSet
	}{
		{domain.TypeSales, "amount", FilterSet{Params: map[string]string{"region": "Atlantis"}}},
		{domain.TypeFoodDelivery, "total_amount", FilterSet{Params: map[string]string{"city": "Nowhere"}}},
		{domain.TypeSaaS, "mrr", FilterSet{Params: map[string]string{"plan_name": "Imaginary"}}},
	} {
		resp, err := svc.Aggregate(context.Background(), AggregationRequest{
			Type: tc.analyticsType, Kind: KindSum, Field: tc.field, Filters: tc.filters,
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Value)
		require.Equal(t, 0.0, *resp.Value)
	}
}

func TestAggregate_MRRGroupedByPlanReflectsMonthlyNormalization(t *testing.T) {
	svc := seededService(t)

	resp, err := svc.Aggregate(context.Background(), AggregationRequest{
		Type: domain.TypeSaaS, Kind: KindSum, Field: "mrr", GroupBy: "plan_name",
	})
	require.NoError(t, err)

	byPlan := make(map[string]float64)
	for _, g := range resp.Groups {
		byPlan[g.Group] = g.Value
	}
	require.Equal(t, 10.0, byPlan["Basic"])
	// Pro = 25 (annual 300/12) + 30 (monthly), not the raw amounts 300+30.
	require.Equal(t, 55.0, byPlan["Pro"])
}

func TestAggregate_AvgMinMax(t *testing.T) {
	svc := seededService(t)
	ctx := context.Background()

	avg, err := svc.Aggregate(ctx, AggregationRequest{Type: domain.TypeSales, Kind: KindAvg, Field: "amount"})
	require.NoError(t, err)
	require.Equal(t, 550.0, *avg.Value)

	min, err := svc.Aggregate(ctx, AggregationRequest{Type: domain.TypeSales, Kind: KindMin, Field: "amount"})
	require.NoError(t, err)
	require.Equal(t, 100.0, *min.Value)

	max, err := svc.Aggregate(ctx, AggregationRequest{Type: domain.TypeSales, Kind: KindMax, Field: "amount"})
	require.NoError(t, err)
	require.Equal(t, 1200.0, *max.Value)
}

func TestAggregate_MinMaxRejectGroupBy(t *testing.T) {
	svc := seededService(t)

	for _, kind := range []Kind{KindMin, KindMax} {
		_, err := svc.Aggregate(context.Background(), AggregationRequest{
			Type: domain.TypeSales, Kind: kind, Field: "amount", GroupBy: "region",
		})
		require.ErrorIs(t, err, ErrUnsupportedGroupedAggregation)
	}
}

func TestAggregate_InvalidFieldAlwaysFails(t *testing.T) {
	svc := seededService(t)

	for _, tc := range []struct {
		analyticsType domain.Type
		field         string
	}{
		{domain.TypeSales, "total_amount"}, // valid elsewhere, not for sales
		{domain.TypeSales, "region"},       // groupable, not aggregatable
		{domain.TypeSaaS, "plan_name"},
		{domain.TypeFoodDelivery, "mrr"},
	} {
		_, err := svc.Aggregate(context.Background(), AggregationRequest{
			Type: tc.analyticsType, Kind: KindSum, Field: tc.field,
		})
		require.ErrorIs(t, err, ErrInvalidField)
	}
}

func TestAggregate_InvalidGroupFieldFails(t *testing.T) {
	svc := seededService(t)

	_, err := svc.Aggregate(context.Background(), AggregationRequest{
		Type: domain.TypeSales, Kind: KindSum, Field: "amount", GroupBy: "amount",
	})
	require.ErrorIs(t, err, ErrInvalidGroupField)
	require.Contains(t, err.Error(), "category") // message names the valid set
}

func TestAggregate_UnknownDomainFails(t *testing.T) {
	svc := seededService(t)

	_, err := svc.Aggregate(context.Background(), AggregationRequest{
		Type: domain.Type("crypto"), Kind: KindSum, Field: "amount",
	})
	require.ErrorIs(t, err, domain.ErrUnknownType)
}

func TestAggregate_FiltersAppliedEchoesSuppliedSubset(t *testing.T) {
	svc := seededService(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	resp, err := svc.Aggregate(context.Background(), AggregationRequest{
		Type: domain.TypeSales, Kind: KindSum, Field: "amount",
		Filters: FilterSet{
			Params:    map[string]string{"category": "Electronics", "city": "Mumbai"},
			StartDate: &start,
		},
	})
	require.NoError(t, err)
	// city is not bound for sales but was supplied, so it is still echoed.
	require.Equal(t, map[string]string{
		"category":   "Electronics",
		"city":       "Mumbai",
		"start_date": "2024-01-01T00:00:00Z",
	}, resp.FiltersApplied)
}

func TestChartData_SumsByGroup(t *testing.T) {
	svc := seededService(t)

	resp, err := svc.ChartData(context.Background(), ChartRequest{
		Type: domain.TypeFoodDelivery, Chart: ChartBar, Field: "total_amount", GroupBy: "city",
	})
	require.NoError(t, err)
	require.Equal(t, "food_delivery", resp.AnalyticsType)
	require.Equal(t, "bar", resp.ChartType)
	require.Equal(t, 2, resp.Metadata.TotalPoints)

	byLabel := make(map[string]float64)
	for _, p := range resp.Data {
		byLabel[p.Label] = p.Value
		require.NotNil(t, p.Metadata)
	}
	require.Equal(t, 54.0, byLabel["Delhi"]) // 20 + 34
	require.Equal(t, 25.0, byLabel["Mumbai"])
}

func TestChartData_EmptyMatchReturnsEmptySeries(t *testing.T) {
	svc := seededService(t)

	resp, err := svc.ChartData(context.Background(), ChartRequest{
		Type: domain.TypeFoodDelivery, Chart: ChartPie, Field: "total_amount", GroupBy: "city",
		Filters: FilterSet{Params: map[string]string{"city": "Nowhere"}},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	require.Empty(t, resp.Data)
	require.Equal(t, 0, resp.Metadata.TotalPoints)
}

func TestChartData_RequiresGroupBy(t *testing.T) {
	svc := seededService(t)

	_, err := svc.ChartData(context.Background(), ChartRequest{
		Type: domain.TypeSales, Chart: ChartLine, Field: "amount",
	})
	require.ErrorIs(t, err, ErrMissingGroupField)
}

func TestSummary_UsesDomainDefaultMetricField(t *testing.T) {
	svc := seededService(t)
	ctx := context.Background()

	sales, err := svc.Summary(ctx, domain.TypeSales, FilterSet{})
	require.NoError(t, err)
	require.Equal(t, "amount", sales.Field)
	require.Equal(t, 3300.0, sales.Total)
	require.Equal(t, 550.0, sales.Average)
	require.Equal(t, int64(6), sales.Count)

	saas, err := svc.Summary(ctx, domain.TypeSaaS, FilterSet{})
	require.NoError(t, err)
	require.Equal(t, "mrr", saas.Field)
	require.Equal(t, 65.0, saas.Total)
}

func TestFields_ListsCapabilitiesPerDomain(t *testing.T) {
	svc := seededService(t)

	resp, err := svc.Fields(domain.TypeSaaS)
	require.NoError(t, err)
	require.Contains(t, resp.AggregatableFields, "mrr")
	require.Contains(t, resp.GroupableFields, "plan_name")
	require.Contains(t, resp.FilterableFields, "customer_id")

	_, err = svc.Fields(domain.Type("nope"))
	require.ErrorIs(t, err, domain.ErrUnknownType)
}
