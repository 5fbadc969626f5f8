package domain

import "fmt"

// Registry holds the descriptors for all supported domains.
// Built once at startup and treated as immutable afterwards; it is injected
// into the services that need it rather than read from package globals.
type Registry struct {
	descriptors map[Type]Descriptor
	order       []Type
}

// NewRegistry builds the registry with the three supported domains.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[Type]Descriptor)}

	r.register(Descriptor{
		Type:               TypeSales,
		Table:              "sales_transactions",
		DateColumn:         "sale_date",
		DefaultMetricField: "amount",
		AggregatableFields: []string{"amount", "quantity"},
		GroupableFields:    []string{"category", "region", "product_name", "payment_method"},
		FilterBindings: []FilterBinding{
			{Param: "category", Column: "category"},
			{Param: "region", Column: "region"},
			{Param: "product_name", Column: "product_name"},
			{Param: "payment_method", Column: "payment_method"},
			{Param: "customer_id", Column: "customer_id"},
		},
	})

	r.register(Descriptor{
		Type:               TypeFoodDelivery,
		Table:              "food_orders",
		DateColumn:         "order_date",
		DefaultMetricField: "total_amount",
		AggregatableFields: []string{"order_amount", "delivery_fee", "tip_amount", "total_amount", "delivery_time_minutes"},
		GroupableFields:    []string{"restaurant_name", "cuisine_type", "city", "delivery_status"},
		FilterBindings: []FilterBinding{
			{Param: "restaurant_name", Column: "restaurant_name"},
			{Param: "cuisine_type", Column: "cuisine_type"},
			{Param: "city", Column: "city"},
			{Param: "delivery_status", Column: "delivery_status"},
			{Param: "customer_id", Column: "customer_id"},
		},
	})

	r.register(Descriptor{
		Type:               TypeSaaS,
		Table:              "subscriptions",
		DateColumn:         "billing_cycle_start",
		DefaultMetricField: "mrr",
		AggregatableFields: []string{"amount", "mrr"},
		GroupableFields:    []string{"plan_name", "plan_type", "status", "currency"},
		FilterBindings: []FilterBinding{
			{Param: "plan_name", Column: "plan_name"},
			{Param: "plan_type", Column: "plan_type"},
			{Param: "status", Column: "status"},
			{Param: "currency", Column: "currency"},
			{Param: "customer_id", Column: "customer_id"},
		},
	})

	return r
}

func (r *Registry) register(d Descriptor) {
	r.descriptors[d.Type] = d
	r.order = append(r.order, d.Type)
}

// Resolve returns the descriptor for the given analytics type.
func (r *Registry) Resolve(t Type) (Descriptor, error) {
	d, ok := r.descriptors[t]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return d, nil
}

// Types returns the registered analytics types in registration order.
func (r *Registry) Types() []Type {
	out := make([]Type, len(r.order))
	copy(out, r.order)
	return out
}

// FilterParamUnion returns every filter parameter name across all registered
// domains, deduplicated, in registration order. The HTTP layer reads this
// union from the query string; the filter builder later drops the names not
// bound for the active domain.
func (r *Registry) FilterParamUnion() []string {
	seen := make(map[string]bool)
	var union []string
	for _, t := range r.order {
		for _, b := range r.descriptors[t].FilterBindings {
			if seen[b.Param] {
				continue
			}
			seen[b.Param] = true
			union = append(union, b.Param)
		}
	}
	return union
}

// FieldCapabilities lists the fields a caller may aggregate, group, or
// filter on for one domain. Mirrors the /fields discovery endpoint.
type FieldCapabilities struct {
	Aggregatable []string
	Groupable    []string
	Filterable   []string
}

// Fields returns the capability listing for the given analytics type.
func (r *Registry) Fields(t Type) (FieldCapabilities, error) {
	d, err := r.Resolve(t)
	if err != nil {
		return FieldCapabilities{}, err
	}
	return FieldCapabilities{
		Aggregatable: append([]string(nil), d.AggregatableFields...),
		Groupable:    append([]string(nil), d.GroupableFields...),
		Filterable:   d.FilterParams(),
	}, nil
}
