package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage"
)

// ErrMalformedPayload wraps any decode failure in an uploaded file: bad CSV
// framing, invalid JSON, or a field value that cannot be coerced.
var ErrMalformedPayload = errors.New("malformed import payload")

// Format selects the upload decoder.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Service decodes uploaded record files and writes them through the store.
type Service struct {
	store            storage.RecordStore
	maxBodySizeBytes int64
}

func NewService(store storage.RecordStore, maxBodySizeMB int) *Service {
	if store == nil {
		panic("importer: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 10 // default to 10MB
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: int64(maxBodySizeMB) * 1024 * 1024,
	}
}

// Result reports the outcome of one import call.
type Result struct {
	Status          string `json:"status"`
	AnalyticsType   string `json:"analytics_type"`
	RecordsImported int    `json:"records_imported"`
	RecordsSkipped  int    `json:"records_skipped"`
	Message         string `json:"message"`
}

// Import decodes the upload for the given analytics type and persists the
// records. Sales rows always append; food orders and subscriptions dedupe on
// their natural keys, counting skipped duplicates in the result.
func (s *Service) Import(ctx context.Context, t domain.Type, format Format, r io.Reader) (*Result, error) {
	switch t {
	case domain.TypeSales:
		return s.importSales(ctx, format, r)
	case domain.TypeFoodDelivery:
		return s.importFoodOrders(ctx, format, r)
	case domain.TypeSaaS:
		return s.importSubscriptions(ctx, format, r)
	default:
		return nil, domain.ErrUnknownType
	}
}

func (s *Service) importSales(ctx context.Context, format Format, r io.Reader) (*Result, error) {
	records, err := decodeSales(format, r)
	if err != nil {
		return nil, err
	}
	inserted, err := s.store.InsertSalesTransactions(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("persist sales transactions: %w", err)
	}
	return newResult(domain.TypeSales, inserted, 0, "sales transactions"), nil
}

func (s *Service) importFoodOrders(ctx context.Context, format Format, r io.Reader) (*Result, error) {
	records, err := decodeFoodOrders(format, r)
	if err != nil {
		return nil, err
	}
	inserted, skipped, err := s.store.UpsertFoodOrders(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("persist food orders: %w", err)
	}
	return newResult(domain.TypeFoodDelivery, inserted, skipped, "food orders"), nil
}

func (s *Service) importSubscriptions(ctx context.Context, format Format, r io.Reader) (*Result, error) {
	records, err := decodeSubscriptions(format, r)
	if err != nil {
		return nil, err
	}
	inserted, skipped, err := s.store.UpsertSubscriptions(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("persist subscriptions: %w", err)
	}
	return newResult(domain.TypeSaaS, inserted, skipped, "subscriptions"), nil
}

func newResult(t domain.Type, inserted, skipped int, noun string) *Result {
	msg := fmt.Sprintf("Successfully imported %d %s", inserted, noun)
	if skipped > 0 {
		msg = fmt.Sprintf("%s (skipped %d duplicates)", msg, skipped)
	}
	return &Result{
		Status:          "success",
		AnalyticsType:   string(t),
		RecordsImported: inserted,
		RecordsSkipped:  skipped,
		Message:         msg,
	}
}
