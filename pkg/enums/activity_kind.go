package enums

import "fmt"

// ActivityKind discriminates the tagged activity records in the terminal journal.
type ActivityKind string

const (
	ActivityKindSale          ActivityKind = "sale"
	ActivityKindWriteOff      ActivityKind = "write_off"
	ActivityKindStockChange   ActivityKind = "stock_change"
	ActivityKindVarietyChange ActivityKind = "variety_change"
)

var validActivityKinds = []ActivityKind{
	ActivityKindSale,
	ActivityKindWriteOff,
	ActivityKindStockChange,
	ActivityKindVarietyChange,
}

// String implements fmt.Stringer.
func (k ActivityKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ActivityKind.
func (k ActivityKind) IsValid() bool {
	for _, candidate := range validActivityKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseActivityKind converts raw input into an ActivityKind.
func ParseActivityKind(value string) (ActivityKind, error) {
	for _, candidate := range validActivityKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity kind %q", value)
}
