package validation

import "github.com/easyworld/worldgen/domain/world"

// Values is the validated, ordered field mapping of one module.
type Values = world.Values

// Adjustment records one corrected field value.
type Adjustment = world.Adjustment

// Report collects the adjustments made while normalising.
type Report struct {
	Adjustments []Adjustment
}

func (r *Report) add(a Adjustment) {
	r.Adjustments = append(r.Adjustments, a)
}

// Merge appends the adjustments of o.
func (r *Report) Merge(o Report) {
	r.Adjustments = append(r.Adjustments, o.Adjustments...)
}

// Len returns the number of adjustments.
func (r Report) Len() int {
	return len(r.Adjustments)
}

// Empty reports whether nothing had to be corrected.
func (r Report) Empty() bool {
	return len(r.Adjustments) == 0
}

// Count returns the number of adjustments of one kind.
func (r Report) Count(kind world.AdjustmentKind) int {
	n := 0
	for _, a := range r.Adjustments {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// For returns the adjustments of one field.
func (r Report) For(module, field string) []Adjustment {
	var out []Adjustment
	for _, a := range r.Adjustments {
		if a.Module == module && a.Field == field {
			out = append(out, a)
		}
	}
	return out
}
