package aggregate

import (
	"fmt"

	"github.com/loomdata/loom"
)

// ForKind instantiates a fresh Aggregator by registered kind name, for
// workers reconstructing reductions from operation descriptors
func ForKind(kind string, colName string) (loom.Aggregator, error) {
	switch kind {
	case "count":
		return Counter()(), nil
	case "sum":
		return Adder(colName)(), nil
	case "mean":
		return Meaner(colName)(), nil
	case "min":
		return Minimizer(colName)(), nil
	case "max":
		return Maximizer(colName)(), nil
	case "std":
		return Deviator(colName)(), nil
	default:
		return nil, fmt.Errorf("unknown aggregator kind %s", kind)
	}
}
