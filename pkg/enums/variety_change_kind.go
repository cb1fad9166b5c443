package enums

// VarietyChangeKind distinguishes variety lifecycle events in the journal.
// These entries are informational and never enter numeric aggregation.
type VarietyChangeKind string

const (
	VarietyChangeCreated VarietyChangeKind = "created"
	VarietyChangeUpdated VarietyChangeKind = "updated"
)

// IsValid reports whether the value is a known VarietyChangeKind.
func (k VarietyChangeKind) IsValid() bool {
	return k == VarietyChangeCreated || k == VarietyChangeUpdated
}
