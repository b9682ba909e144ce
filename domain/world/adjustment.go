package world

import "fmt"

// AdjustmentKind classifies how a field value was corrected.
type AdjustmentKind string

const (
	AdjustDefaulted AdjustmentKind = "defaulted" // missing or wrong type
	AdjustClamped   AdjustmentKind = "clamped"   // numeric outside [min, max]
	AdjustCoerced   AdjustmentKind = "coerced"   // convertible type, e.g. "5" or 4.6 for an int
	AdjustSnapped   AdjustmentKind = "snapped"   // moved to the nearest discrete level
	AdjustDropped   AdjustmentKind = "dropped"   // unknown field or unusable list entry
	AdjustPerturbed AdjustmentKind = "perturbed" // changed to keep texture layers distinct
)

// Adjustment records one value the normalizer had to correct.
// An out-of-domain field is never an error; it is an Adjustment.
type Adjustment struct {
	Module string         `json:"module"`
	Index  int            `json:"index,omitempty"` // list entry, for repeated modules
	Field  string         `json:"field,omitempty"`
	Kind   AdjustmentKind `json:"kind"`
	From   any            `json:"from,omitempty"`
	To     any            `json:"to,omitempty"`
}

func (a Adjustment) String() string {
	if a.Field == "" {
		return fmt.Sprintf("%s[%d] %s", a.Module, a.Index, a.Kind)
	}
	return fmt.Sprintf("%s.%s %s: %v -> %v", a.Module, a.Field, a.Kind, a.From, a.To)
}
