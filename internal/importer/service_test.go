package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage"
	"github.com/stretchr/testify/require"
)

func TestDecodeSalesCSV_Defaults(t *testing.T) {
	csv := strings.Join([]string{
		"product_name,category,amount,quantity,region,customer_id,payment_method,sale_date",
		"Laptop,Electronics,1200.50,2,North,CUST_1001,debit_card,2024-01-15",
		"Mouse,Electronics,19.99,,South,,,2024-02-01 09:30:00",
	}, "\n")

	records, err := decodeSales(FormatCSV, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.Equal(t, "Laptop", first.ProductName)
	require.Equal(t, 1200.50, first.Amount)
	require.Equal(t, 2, first.Quantity)
	require.Equal(t, "CUST_1001", first.CustomerID)
	require.Equal(t, "debit_card", first.PaymentMethod)
	require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), first.SaleDate)

	second := records[1]
	require.Equal(t, 19.99, second.Amount)
	require.Equal(t, 1, second.Quantity, "absent quantity defaults to 1")
	require.True(t, strings.HasPrefix(second.CustomerID, "CUST_"), "absent customer_id is generated")
	require.Len(t, second.CustomerID, len("CUST_")+8)
	require.Equal(t, "credit_card", second.PaymentMethod)
	require.Equal(t, time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), second.SaleDate)
}

func TestDecodeSalesCSV_RejectsBadAmount(t *testing.T) {
	csv := strings.Join([]string{
		"product_name,amount",
		"Laptop,not-a-number",
	}, "\n")

	_, err := decodeSales(FormatCSV, strings.NewReader(csv))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeSalesJSON_RejectsInvalidBody(t *testing.T) {
	_, err := decodeSales(FormatJSON, strings.NewReader(`{"not": "an array"`))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeFoodOrders_TotalComputedWhenAbsent(t *testing.T) {
	payload := `[
		{"order_id": "ORD_A", "restaurant_name": "Spice Route", "city": "Delhi",
		 "order_amount": 500.10, "delivery_fee": 30.20, "tip_amount": 50.05,
		 "order_date": "2024-03-01"},
		{"order_id": "ORD_B", "restaurant_name": "Spice Route", "city": "Delhi",
		 "order_amount": 100, "delivery_fee": 10, "tip_amount": 5,
		 "total_amount": 999, "order_date": "2024-03-01"}
	]`

	records, err := decodeFoodOrders(FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 580.35, records[0].TotalAmount, "absent total is the sum of the components")
	require.Equal(t, 999.0, records[1].TotalAmount, "explicit total wins")
	require.Equal(t, "pending", records[0].DeliveryStatus)
}

func TestDecodeFoodOrders_GeneratedOrderID(t *testing.T) {
	payload := `[{"restaurant_name": "Spice Route", "city": "Delhi", "order_amount": 100}]`

	records, err := decodeFoodOrders(FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, strings.HasPrefix(records[0].OrderID, "ORD_"))
	require.Equal(t, strings.ToUpper(records[0].OrderID), records[0].OrderID)
}

func TestDecodeSubscriptions_MRRDerivation(t *testing.T) {
	csv := strings.Join([]string{
		"subscription_id,plan_name,plan_type,amount,billing_cycle_start,billing_cycle_end,mrr",
		"SUB_A,Pro,annual,120,2024-01-01,2024-12-31,",
		"SUB_B,Basic,monthly,30,2024-01-01,2024-02-01,",
		"SUB_C,Pro,annual,300,2024-01-01,2024-12-31,99.99",
	}, "\n")

	records, err := decodeSubscriptions(FormatCSV, strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, 10.0, records[0].MRR, "annual amount is divided by 12")
	require.Equal(t, 30.0, records[1].MRR, "monthly amount is the MRR")
	require.Equal(t, 99.99, records[2].MRR, "explicit mrr wins over derivation")
	require.Equal(t, "active", records[0].Status)
	require.Equal(t, "USD", records[0].Currency)
}

func TestDecodeSubscriptions_CancelledAt(t *testing.T) {
	payload := `[
		{"subscription_id": "SUB_A", "plan_name": "Pro", "plan_type": "monthly",
		 "amount": 30, "status": "cancelled",
		 "billing_cycle_start": "2024-01-01", "billing_cycle_end": "2024-02-01",
		 "cancelled_at": "2024-01-20"}
	]`

	records, err := decodeSubscriptions(FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].CancelledAt)
	require.Equal(t, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC), *records[0].CancelledAt)
}

func TestImport_SalesAlwaysAppends(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewService(store, 10)

	payload := `[{"product_name": "Laptop", "category": "Electronics", "amount": 1200, "region": "North", "sale_date": "2024-01-15"}]`

	for i := 0; i < 2; i++ {
		res, err := svc.Import(context.Background(), domain.TypeSales, FormatJSON, strings.NewReader(payload))
		require.NoError(t, err)
		require.Equal(t, "success", res.Status)
		require.Equal(t, 1, res.RecordsImported)
		require.Equal(t, 0, res.RecordsSkipped)
	}

	count, err := store.Count(context.Background(), "sales_transactions", nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), count, "sales has no natural key, repeats append")
}

func TestImport_FoodOrdersSkipDuplicates(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewService(store, 10)

	payload := `[
		{"order_id": "ORD_A", "restaurant_name": "Spice Route", "city": "Delhi", "order_amount": 100, "order_date": "2024-03-01"},
		{"order_id": "ORD_B", "restaurant_name": "Spice Route", "city": "Delhi", "order_amount": 200, "order_date": "2024-03-01"}
	]`

	res, err := svc.Import(context.Background(), domain.TypeFoodDelivery, FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 2, res.RecordsImported)
	require.Equal(t, 0, res.RecordsSkipped)

	// Re-importing the same file inserts nothing.
	res, err = svc.Import(context.Background(), domain.TypeFoodDelivery, FormatJSON, strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 0, res.RecordsImported)
	require.Equal(t, 2, res.RecordsSkipped)
	require.Contains(t, res.Message, "skipped 2 duplicates")

	count, err := store.Count(context.Background(), "food_orders", nil)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestImport_SubscriptionMRRAggregates(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewService(store, 10)

	csv := strings.Join([]string{
		"subscription_id,plan_name,plan_type,amount,billing_cycle_start,billing_cycle_end",
		"SUB_A,Pro,annual,120,2024-01-01,2024-12-31",
		"SUB_B,Basic,monthly,30,2024-01-01,2024-02-01",
	}, "\n")

	res, err := svc.Import(context.Background(), domain.TypeSaaS, FormatCSV, strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 2, res.RecordsImported)

	total, err := store.Aggregate(context.Background(), "subscriptions", storage.FnSum, "mrr", nil)
	require.NoError(t, err)
	require.Equal(t, 40.0, total)
}

func TestImport_UnknownType(t *testing.T) {
	svc := NewService(storage.NewMemoryStore(), 10)

	_, err := svc.Import(context.Background(), domain.Type("weather"), FormatCSV, strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrUnknownType)
}
