package v1

import "time"

// The three record variants, one per analytics domain. Records are written
// by import and seed operations and are read-only from the query layer's
// perspective — the aggregation core never mutates them.

// SalesTransaction is a single e-commerce sale.
type SalesTransaction struct {
	ID            int64     `json:"-"`
	ProductName   string    `json:"product_name"`
	Category      string    `json:"category"`
	Amount        float64   `json:"amount"`
	Quantity      int       `json:"quantity"`
	Region        string    `json:"region"`
	CustomerID    string    `json:"customer_id"`
	PaymentMethod string    `json:"payment_method"`
	SaleDate      time.Time `json:"sale_date"`
}

// FoodOrder is a single food-delivery order.
// TotalAmount is order_amount + delivery_fee + tip_amount, stored
// denormalized so it can be aggregated directly.
type FoodOrder struct {
	ID                  int64     `json:"-"`
	OrderID             string    `json:"order_id"`
	RestaurantName      string    `json:"restaurant_name"`
	CuisineType         string    `json:"cuisine_type"`
	OrderAmount         float64   `json:"order_amount"`
	DeliveryFee         float64   `json:"delivery_fee"`
	TipAmount           float64   `json:"tip_amount"`
	TotalAmount         float64   `json:"total_amount"`
	CustomerID          string    `json:"customer_id"`
	City                string    `json:"city"`
	DeliveryStatus      string    `json:"delivery_status"`
	OrderDate           time.Time `json:"order_date"`
	DeliveryTimeMinutes int       `json:"delivery_time_minutes"`
}

// Subscription is a single SaaS subscription.
// MRR is the billing amount normalized to a monthly cadence: the amount
// itself for monthly plans, amount/12 for annual plans.
type Subscription struct {
	ID                int64      `json:"-"`
	SubscriptionID    string     `json:"subscription_id"`
	CustomerID        string     `json:"customer_id"`
	PlanName          string     `json:"plan_name"`
	PlanType          string     `json:"plan_type"`
	Amount            float64    `json:"amount"`
	Status            string     `json:"status"`
	Currency          string     `json:"currency"`
	BillingCycleStart time.Time  `json:"billing_cycle_start"`
	BillingCycleEnd   time.Time  `json:"billing_cycle_end"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	MRR               float64    `json:"mrr"`
}
