package importer

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	v1 "github.com/crosstab-io/crosstab/internal/api/v1"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Accepted layouts for date columns in uploaded files, tried in order.
var recordDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04:05",
}

func parseRecordDate(s string) (time.Time, error) {
	for _, layout := range recordDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unable to parse date %q", ErrMalformedPayload, s)
}

// dateOrNow parses s, substituting the current time for an absent value.
func dateOrNow(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return parseRecordDate(s)
}

// parseMoney parses a monetary field through decimal so values like "19.99"
// survive exactly. Empty values fall back to def.
func parseMoney(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid numeric value %q", ErrMalformedPayload, s)
	}
	return d.InexactFloat64(), nil
}

func parseCount(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid integer value %q", ErrMalformedPayload, s)
	}
	return n, nil
}

// shortID returns an 8-hex-char random identifier fragment.
func shortID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

func newCustomerID() string     { return "CUST_" + shortID() }
func newOrderID() string        { return "ORD_" + strings.ToUpper(shortID()) }
func newSubscriptionID() string { return "SUB_" + strings.ToUpper(shortID()) }

// deriveMRR normalizes a billing amount to its monthly equivalent: annual
// plans divide by 12, everything else bills monthly already. Rounded to
// cents with exact decimal division.
func deriveMRR(amount float64, planType string) float64 {
	d := decimal.NewFromFloat(amount)
	if planType == "annual" {
		d = d.Div(decimal.NewFromInt(12))
	}
	return d.Round(2).InexactFloat64()
}

// sumAmounts adds monetary components without float drift.
func sumAmounts(parts ...float64) float64 {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(decimal.NewFromFloat(p))
	}
	return total.Round(2).InexactFloat64()
}

// csvRows reads the full CSV stream and yields each data row keyed by the
// header names. Quoted fields and embedded commas follow encoding/csv rules.
func csvRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeJSONRows(r io.Reader, out interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

// --- sales ---

type salesRow struct {
	ProductName   string   `json:"product_name"`
	Category      string   `json:"category"`
	Amount        *float64 `json:"amount"`
	Quantity      *int     `json:"quantity"`
	Region        string   `json:"region"`
	CustomerID    string   `json:"customer_id"`
	PaymentMethod string   `json:"payment_method"`
	SaleDate      string   `json:"sale_date"`
}

func (row salesRow) record() (v1.SalesTransaction, error) {
	saleDate, err := dateOrNow(row.SaleDate)
	if err != nil {
		return v1.SalesTransaction{}, err
	}

	rec := v1.SalesTransaction{
		ProductName:   row.ProductName,
		Category:      row.Category,
		Quantity:      1,
		Region:        row.Region,
		CustomerID:    row.CustomerID,
		PaymentMethod: row.PaymentMethod,
		SaleDate:      saleDate,
	}
	if row.Amount != nil {
		rec.Amount = *row.Amount
	}
	if row.Quantity != nil {
		rec.Quantity = *row.Quantity
	}
	if rec.CustomerID == "" {
		rec.CustomerID = newCustomerID()
	}
	if rec.PaymentMethod == "" {
		rec.PaymentMethod = "credit_card"
	}
	return rec, nil
}

func decodeSales(format Format, r io.Reader) ([]v1.SalesTransaction, error) {
	var rows []salesRow
	switch format {
	case FormatCSV:
		raw, err := csvRows(r)
		if err != nil {
			return nil, err
		}
		for _, row := range raw {
			amount, err := parseMoney(row["amount"], 0)
			if err != nil {
				return nil, err
			}
			quantity, err := parseCount(row["quantity"], 1)
			if err != nil {
				return nil, err
			}
			rows = append(rows, salesRow{
				ProductName:   row["product_name"],
				Category:      row["category"],
				Amount:        &amount,
				Quantity:      &quantity,
				Region:        row["region"],
				CustomerID:    row["customer_id"],
				PaymentMethod: row["payment_method"],
				SaleDate:      row["sale_date"],
			})
		}
	case FormatJSON:
		if err := decodeJSONRows(r, &rows); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedPayload, format)
	}

	records := make([]v1.SalesTransaction, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// --- food delivery ---

type foodOrderRow struct {
	OrderID             string   `json:"order_id"`
	RestaurantName      string   `json:"restaurant_name"`
	CuisineType         string   `json:"cuisine_type"`
	OrderAmount         *float64 `json:"order_amount"`
	DeliveryFee         *float64 `json:"delivery_fee"`
	TipAmount           *float64 `json:"tip_amount"`
	TotalAmount         *float64 `json:"total_amount"`
	CustomerID          string   `json:"customer_id"`
	City                string   `json:"city"`
	DeliveryStatus      string   `json:"delivery_status"`
	OrderDate           string   `json:"order_date"`
	DeliveryTimeMinutes *int     `json:"delivery_time_minutes"`
}

func (row foodOrderRow) record() (v1.FoodOrder, error) {
	orderDate, err := dateOrNow(row.OrderDate)
	if err != nil {
		return v1.FoodOrder{}, err
	}

	rec := v1.FoodOrder{
		OrderID:        row.OrderID,
		RestaurantName: row.RestaurantName,
		CuisineType:    row.CuisineType,
		CustomerID:     row.CustomerID,
		City:           row.City,
		DeliveryStatus: row.DeliveryStatus,
		OrderDate:      orderDate,
	}
	if row.OrderAmount != nil {
		rec.OrderAmount = *row.OrderAmount
	}
	if row.DeliveryFee != nil {
		rec.DeliveryFee = *row.DeliveryFee
	}
	if row.TipAmount != nil {
		rec.TipAmount = *row.TipAmount
	}
	if row.TotalAmount != nil {
		rec.TotalAmount = *row.TotalAmount
	} else {
		rec.TotalAmount = sumAmounts(rec.OrderAmount, rec.DeliveryFee, rec.TipAmount)
	}
	if row.DeliveryTimeMinutes != nil {
		rec.DeliveryTimeMinutes = *row.DeliveryTimeMinutes
	}
	if rec.OrderID == "" {
		rec.OrderID = newOrderID()
	}
	if rec.CustomerID == "" {
		rec.CustomerID = newCustomerID()
	}
	if rec.DeliveryStatus == "" {
		rec.DeliveryStatus = "pending"
	}
	return rec, nil
}

func decodeFoodOrders(format Format, r io.Reader) ([]v1.FoodOrder, error) {
	var rows []foodOrderRow
	switch format {
	case FormatCSV:
		raw, err := csvRows(r)
		if err != nil {
			return nil, err
		}
		for _, row := range raw {
			parsed := foodOrderRow{
				OrderID:        row["order_id"],
				RestaurantName: row["restaurant_name"],
				CuisineType:    row["cuisine_type"],
				CustomerID:     row["customer_id"],
				City:           row["city"],
				DeliveryStatus: row["delivery_status"],
				OrderDate:      row["order_date"],
			}
			orderAmount, err := parseMoney(row["order_amount"], 0)
			if err != nil {
				return nil, err
			}
			deliveryFee, err := parseMoney(row["delivery_fee"], 0)
			if err != nil {
				return nil, err
			}
			tipAmount, err := parseMoney(row["tip_amount"], 0)
			if err != nil {
				return nil, err
			}
			parsed.OrderAmount = &orderAmount
			parsed.DeliveryFee = &deliveryFee
			parsed.TipAmount = &tipAmount
			// total_amount stays nil when the column is absent so the
			// record builder recomputes it from the components.
			if row["total_amount"] != "" {
				total, err := parseMoney(row["total_amount"], 0)
				if err != nil {
					return nil, err
				}
				parsed.TotalAmount = &total
			}
			if row["delivery_time_minutes"] != "" {
				minutes, err := parseCount(row["delivery_time_minutes"], 0)
				if err != nil {
					return nil, err
				}
				parsed.DeliveryTimeMinutes = &minutes
			}
			rows = append(rows, parsed)
		}
	case FormatJSON:
		if err := decodeJSONRows(r, &rows); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedPayload, format)
	}

	records := make([]v1.FoodOrder, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// --- saas ---

type subscriptionRow struct {
	SubscriptionID    string   `json:"subscription_id"`
	CustomerID        string   `json:"customer_id"`
	PlanName          string   `json:"plan_name"`
	PlanType          string   `json:"plan_type"`
	Amount            *float64 `json:"amount"`
	Status            string   `json:"status"`
	Currency          string   `json:"currency"`
	BillingCycleStart string   `json:"billing_cycle_start"`
	BillingCycleEnd   string   `json:"billing_cycle_end"`
	CancelledAt       string   `json:"cancelled_at"`
	MRR               *float64 `json:"mrr"`
}

func (row subscriptionRow) record() (v1.Subscription, error) {
	billingStart, err := dateOrNow(row.BillingCycleStart)
	if err != nil {
		return v1.Subscription{}, err
	}
	billingEnd, err := dateOrNow(row.BillingCycleEnd)
	if err != nil {
		return v1.Subscription{}, err
	}

	rec := v1.Subscription{
		SubscriptionID:    row.SubscriptionID,
		CustomerID:        row.CustomerID,
		PlanName:          row.PlanName,
		PlanType:          row.PlanType,
		Status:            row.Status,
		Currency:          row.Currency,
		BillingCycleStart: billingStart,
		BillingCycleEnd:   billingEnd,
	}
	if row.Amount != nil {
		rec.Amount = *row.Amount
	}
	if row.CancelledAt != "" {
		cancelled, err := parseRecordDate(row.CancelledAt)
		if err != nil {
			return v1.Subscription{}, err
		}
		rec.CancelledAt = &cancelled
	}
	if rec.SubscriptionID == "" {
		rec.SubscriptionID = newSubscriptionID()
	}
	if rec.CustomerID == "" {
		rec.CustomerID = newCustomerID()
	}
	if rec.PlanType == "" {
		rec.PlanType = "monthly"
	}
	if rec.Status == "" {
		rec.Status = "active"
	}
	if rec.Currency == "" {
		rec.Currency = "USD"
	}
	if row.MRR != nil {
		rec.MRR = *row.MRR
	} else {
		rec.MRR = deriveMRR(rec.Amount, rec.PlanType)
	}
	return rec, nil
}

func decodeSubscriptions(format Format, r io.Reader) ([]v1.Subscription, error) {
	var rows []subscriptionRow
	switch format {
	case FormatCSV:
		raw, err := csvRows(r)
		if err != nil {
			return nil, err
		}
		for _, row := range raw {
			parsed := subscriptionRow{
				SubscriptionID:    row["subscription_id"],
				CustomerID:        row["customer_id"],
				PlanName:          row["plan_name"],
				PlanType:          row["plan_type"],
				Status:            row["status"],
				Currency:          row["currency"],
				BillingCycleStart: row["billing_cycle_start"],
				BillingCycleEnd:   row["billing_cycle_end"],
				CancelledAt:       row["cancelled_at"],
			}
			amount, err := parseMoney(row["amount"], 0)
			if err != nil {
				return nil, err
			}
			parsed.Amount = &amount
			// mrr stays nil when the column is absent so the record
			// builder derives it from amount and plan_type.
			if row["mrr"] != "" {
				mrr, err := parseMoney(row["mrr"], 0)
				if err != nil {
					return nil, err
				}
				parsed.MRR = &mrr
			}
			rows = append(rows, parsed)
		}
	case FormatJSON:
		if err := decodeJSONRows(r, &rows); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedPayload, format)
	}

	records := make([]v1.Subscription, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
