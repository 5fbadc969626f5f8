package domain

import (
	"errors"
	"fmt"
)

// Type identifies one of the supported analytics verticals.
type Type string

const (
	TypeSales        Type = "sales"
	TypeFoodDelivery Type = "food_delivery"
	TypeSaaS         Type = "saas"
)

// ErrUnknownType is returned when an analytics type is not registered.
var ErrUnknownType = errors.New("unknown analytics type")

// ParseType converts the wire value of analytics_type into a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeSales, TypeFoodDelivery, TypeSaaS:
		return Type(s), nil
	}
	return "", fmt.Errorf("%w: %q (must be one of sales, food_delivery, saas)", ErrUnknownType, s)
}

// FilterBinding maps an external filter parameter name to the record column
// it constrains. Bindings are ordered; predicates are emitted in this order.
type FilterBinding struct {
	Param  string
	Column string
}

// Descriptor is the schema metadata for one analytics domain.
// Every column name reachable from a query (aggregation target, group key,
// filter column, date column) must appear here — this is the authorization
// boundary that keeps arbitrary field names out of SQL construction.
type Descriptor struct {
	Type               Type
	Table              string
	DateColumn         string
	DefaultMetricField string // primary field used by the metrics summary
	AggregatableFields []string
	GroupableFields    []string
	FilterBindings     []FilterBinding
}

// CanAggregate reports whether field is a valid aggregation target.
func (d Descriptor) CanAggregate(field string) bool {
	return contains(d.AggregatableFields, field)
}

// CanGroup reports whether field is a valid group key.
func (d Descriptor) CanGroup(field string) bool {
	return contains(d.GroupableFields, field)
}

// BindFilter resolves an external filter parameter to its bound column.
func (d Descriptor) BindFilter(param string) (string, bool) {
	for _, b := range d.FilterBindings {
		if b.Param == param {
			return b.Column, true
		}
	}
	return "", false
}

// FilterParams returns the domain's filter parameter names in binding order.
func (d Descriptor) FilterParams() []string {
	params := make([]string, 0, len(d.FilterBindings))
	for _, b := range d.FilterBindings {
		params = append(params, b.Param)
	}
	return params
}

func contains(fields []string, field string) bool {
	for _, f := range fields {
		if f == field {
			return true
		}
	}
	return false
}
