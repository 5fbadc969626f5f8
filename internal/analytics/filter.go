package analytics

import (
	"github.com/crosstab-io/crosstab/internal/core/domain"
	"github.com/crosstab-io/crosstab/internal/core/storage"
)

// BuildPredicates translates a filter set into ordered store predicates for
// one domain. Equality predicates follow the descriptor's binding order;
// date-range predicates come last, against the domain's date column.
// Parameters not bound for the domain are dropped without error — the
// filter set is shared across all domains' surfaces, so unknown names are
// expected, not a fault. Pure: no I/O, no mutation of its inputs.
func BuildPredicates(d domain.Descriptor, fs FilterSet) []storage.Predicate {
	var preds []storage.Predicate

	for _, binding := range d.FilterBindings {
		value, ok := fs.Params[binding.Param]
		if !ok || value == "" {
			continue
		}
		preds = append(preds, storage.Predicate{
			Column: binding.Column,
			Op:     storage.OpEq,
			Value:  value,
		})
	}

	if fs.StartDate != nil {
		preds = append(preds, storage.Predicate{
			Column: d.DateColumn,
			Op:     storage.OpGTE,
			Value:  *fs.StartDate,
		})
	}
	if fs.EndDate != nil {
		preds = append(preds, storage.Predicate{
			Column: d.DateColumn,
			Op:     storage.OpLTE,
			Value:  *fs.EndDate,
		})
	}

	return preds
}
