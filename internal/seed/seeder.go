package seed

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	v1 "github.com/crosstab-io/crosstab/internal/api/v1"
	"github.com/crosstab-io/crosstab/internal/core/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Counts sets how many records to generate per domain.
type Counts struct {
	Sales         int
	Orders        int
	Subscriptions int
}

// DefaultCounts matches the sample dataset size the API was demoed with.
var DefaultCounts = Counts{Sales: 500, Orders: 500, Subscriptions: 300}

// Seeder generates randomized sample records for all three analytics domains
// and writes them through the store. Generation is deterministic for a fixed
// base seed.
type Seeder struct {
	store    storage.RecordStore
	catalog  Catalog
	baseSeed int64
	now      time.Time
}

func New(store storage.RecordStore, catalog Catalog, baseSeed int64) *Seeder {
	if store == nil {
		panic("seed: store must not be nil")
	}
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}
	return &Seeder{
		store:    store,
		catalog:  catalog,
		baseSeed: baseSeed,
		now:      time.Now().UTC(),
	}
}

// Run generates and persists counts records per domain. The three domains
// are independent, so they build and write concurrently; each goroutine gets
// its own rng so the output stays deterministic regardless of scheduling.
func (s *Seeder) Run(ctx context.Context, counts Counts) error {
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records := s.buildSales(counts.Sales, rand.New(rand.NewSource(s.baseSeed)))
		if _, err := s.store.InsertSalesTransactions(ctx, records); err != nil {
			return fmt.Errorf("seed sales transactions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		records := s.buildOrders(counts.Orders, rand.New(rand.NewSource(s.baseSeed+1)))
		if _, _, err := s.store.UpsertFoodOrders(ctx, records); err != nil {
			return fmt.Errorf("seed food orders: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		records := s.buildSubscriptions(counts.Subscriptions, rand.New(rand.NewSource(s.baseSeed+2)))
		if _, _, err := s.store.UpsertSubscriptions(ctx, records); err != nil {
			return fmt.Errorf("seed subscriptions: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Seeded sample data",
		"sales", counts.Sales,
		"orders", counts.Orders,
		"subscriptions", counts.Subscriptions,
		"duration", time.Since(start))
	return nil
}

func (s *Seeder) buildSales(n int, rng *rand.Rand) []v1.SalesTransaction {
	baseDate := s.now.AddDate(0, 0, -365)
	records := make([]v1.SalesTransaction, 0, n)

	for i := 0; i < n; i++ {
		p := s.catalog.Products[rng.Intn(len(s.catalog.Products))]
		saleDate := baseDate.Add(time.Duration(rng.Intn(365*24*60)) * time.Minute)

		// Price bands roughly track the product class.
		var amount float64
		var quantity int
		switch {
		case strings.Contains(p.Name, "Laptop"):
			amount = 800 + rng.Float64()*700
			quantity = 1 + rng.Intn(3)
		case strings.Contains(p.Name, "Smartphone"):
			amount = 400 + rng.Float64()*400
			quantity = 1 + rng.Intn(5)
		case strings.Contains(p.Name, "Chair"):
			amount = 150 + rng.Float64()*250
			quantity = 1 + rng.Intn(2)
		default:
			amount = 20 + rng.Float64()*180
			quantity = 1 + rng.Intn(10)
		}

		records = append(records, v1.SalesTransaction{
			ProductName:   p.Name,
			Category:      p.Category,
			Amount:        roundCents(amount),
			Quantity:      quantity,
			Region:        p.Region,
			CustomerID:    fmt.Sprintf("CUST_%04d", 1000+rng.Intn(9000)),
			PaymentMethod: p.PaymentMethod,
			SaleDate:      saleDate,
		})
	}
	return records
}

func (s *Seeder) buildOrders(n int, rng *rand.Rand) []v1.FoodOrder {
	baseDate := s.now.AddDate(0, 0, -180)
	records := make([]v1.FoodOrder, 0, n)

	for i := 0; i < n; i++ {
		r := s.catalog.Restaurants[rng.Intn(len(s.catalog.Restaurants))]
		orderDate := baseDate.Add(time.Duration(rng.Intn(180*24*60)) * time.Minute)

		orderAmount := roundCents(200 + rng.Float64()*1300)
		deliveryFee := roundCents(20 + rng.Float64()*30)
		tipAmount := roundCents(rng.Float64() * orderAmount * 0.15)

		status := s.catalog.DeliveryStatuses[rng.Intn(len(s.catalog.DeliveryStatuses))]
		minutes := 0
		if status == "delivered" {
			minutes = 15 + rng.Intn(46)
		}

		records = append(records, v1.FoodOrder{
			OrderID:             "ORD_" + randomIDSuffix(rng),
			RestaurantName:      r.Name,
			CuisineType:         r.Cuisine,
			OrderAmount:         orderAmount,
			DeliveryFee:         deliveryFee,
			TipAmount:           tipAmount,
			TotalAmount:         addCents(orderAmount, deliveryFee, tipAmount),
			CustomerID:          fmt.Sprintf("CUST_%04d", 1000+rng.Intn(9000)),
			City:                r.City,
			DeliveryStatus:      status,
			OrderDate:           orderDate,
			DeliveryTimeMinutes: minutes,
		})
	}
	return records
}

func (s *Seeder) buildSubscriptions(n int, rng *rand.Rand) []v1.Subscription {
	baseDate := s.now.AddDate(0, 0, -730)
	records := make([]v1.Subscription, 0, n)

	for i := 0; i < n; i++ {
		p := s.catalog.Plans[rng.Intn(len(s.catalog.Plans))]

		cycleDays := 30
		if p.Type == "annual" {
			cycleDays = 365
		}

		billingStart := baseDate.AddDate(0, 0, rng.Intn(730))
		billingEnd := billingStart.AddDate(0, 0, cycleDays)
		if billingEnd.After(s.now) {
			billingEnd = s.now
		}

		status := s.catalog.SubscriptionStatuses[rng.Intn(len(s.catalog.SubscriptionStatuses))]
		var cancelledAt *time.Time
		if status == "cancelled" {
			t := billingStart.AddDate(0, 0, 1+rng.Intn(cycleDays-1))
			cancelledAt = &t
		}

		records = append(records, v1.Subscription{
			SubscriptionID:    "SUB_" + randomIDSuffix(rng),
			CustomerID:        fmt.Sprintf("CUST_%04d", 1000+rng.Intn(9000)),
			PlanName:          p.Name,
			PlanType:          p.Type,
			Amount:            p.Amount,
			Status:            status,
			Currency:          "USD",
			BillingCycleStart: billingStart,
			BillingCycleEnd:   billingEnd,
			CancelledAt:       cancelledAt,
			MRR:               monthlyRevenue(p),
		})
	}
	return records
}

// monthlyRevenue normalizes a plan's billing amount to its monthly
// equivalent, rounded to cents.
func monthlyRevenue(p Plan) float64 {
	d := decimal.NewFromFloat(p.Amount)
	if p.Type == "annual" {
		d = d.Div(decimal.NewFromInt(12))
	}
	return d.Round(2).InexactFloat64()
}

func roundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func addCents(parts ...float64) float64 {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total.Round(2).InexactFloat64()
}

// randomIDSuffix derives an 8-hex-char id fragment from the seeded rng so
// generated ids stay reproducible run to run, unlike uuid.New.
func randomIDSuffix(rng *rand.Rand) string {
	var raw [4]byte
	rng.Read(raw[:])
	return strings.ToUpper(hex.EncodeToString(raw[:]))
}
