package postgres

// SQL statements for the record write path. The read path (aggregation) is
// assembled in records_adapter.go from registry-validated identifiers.

const (
	// queryInsertSale appends one sales transaction. Sales has no natural
	// key, so there is no conflict clause — imports always append.
	queryInsertSale = `
		INSERT INTO sales_transactions (
			product_name, category, amount, quantity,
			region, customer_id, payment_method, sale_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	// queryUpsertFoodOrder inserts a food order, skipping duplicates on
	// order_id. DO NOTHING reports zero rows affected for a duplicate,
	// which is how the adapter counts skipped rows.
	queryUpsertFoodOrder = `
		INSERT INTO food_orders (
			order_id, restaurant_name, cuisine_type,
			order_amount, delivery_fee, tip_amount, total_amount,
			customer_id, city, delivery_status, order_date, delivery_time_minutes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (order_id) DO NOTHING
	`

	// queryUpsertSubscription inserts a subscription, skipping duplicates
	// on subscription_id.
	queryUpsertSubscription = `
		INSERT INTO subscriptions (
			subscription_id, customer_id, plan_name, plan_type,
			amount, status, currency,
			billing_cycle_start, billing_cycle_end, cancelled_at, mrr
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (subscription_id) DO NOTHING
	`
)
