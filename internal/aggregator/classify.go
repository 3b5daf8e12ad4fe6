package aggregator

import "github.com/pable/go-wp-metrics/internal/model"

// IsAffirmative reports whether either of two redundant raw signals is set,
// as decided by model.Truthy. NaN counts as set.
func IsAffirmative(primary, secondary any) bool {
	return model.Truthy(primary) || model.Truthy(secondary)
}
