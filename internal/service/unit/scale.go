package unit

import (
	"fmt"
	"strings"

	"github.com/slok/infostats/internal/model"
)

var (
	// siPrefixes are indexed by (exponent+18)/3.
	siPrefixes = []string{"a", "f", "p", "n", "µ", "m", "", "K", "M", "G", "T", "P", "E"}
	// iecPrefixes are indexed by exponent/10.
	iecPrefixes = []string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei"}
)

// Symbol returns the abbreviated letter of a unit, empty if the unit
// doesn't have one.
func Symbol(u model.Unit) string {
	switch u {
	case model.UnitSeconds:
		return "s"
	case model.UnitBytes:
		return "B"
	}
	return ""
}

// SIPrefix returns the decimal magnitude prefix for exp, false when exp is
// not a multiple of 3 in [-18, 18].
func SIPrefix(exp int) (string, bool) {
	if exp < -18 || exp > 18 || exp%3 != 0 {
		return "", false
	}
	return siPrefixes[(exp+18)/3], true
}

// IECPrefix returns the binary magnitude prefix for exp, false when exp is
// not a multiple of 10 in [0, 60].
func IECPrefix(exp int) (string, bool) {
	if exp < 0 || exp > 60 || exp%10 != 0 {
		return "", false
	}
	return iecPrefixes[exp/10], true
}

// FormatScale returns the display token of a scale: a magnitude prefix
// followed by the unit letter when one applies ("GB", "KiB", "µs"),
// otherwise an explicit "* base^exponent" followed by the unit name.
// It returns an empty string for unitless scales with a zero exponent.
func FormatScale(s model.Scale) string {
	symbol := Symbol(s.Unit)

	if symbol != "" {
		switch s.Base {
		case 10:
			if p, ok := SIPrefix(s.Exponent); ok {
				return p + symbol
			}
		case 2:
			if p, ok := IECPrefix(s.Exponent); ok {
				return p + symbol
			}
		}
	}

	if s.Exponent != 0 {
		exp := fmt.Sprintf("* %d^%d", s.Base, s.Exponent)
		if s.Unit == model.UnitNone {
			return exp
		}
		return exp + " " + string(s.Unit)
	}

	return string(s.Unit)
}

// Annotation returns the schema part of a metric line that goes after the
// type name inside the parentheses, including the leading separators:
// ", GB", ", * 10^7 cycles", ", bucket size=16". Empty when there is
// nothing to annotate.
func Annotation(e model.SchemaEntry) string {
	var sb strings.Builder

	if e.Scale.Unit != model.UnitNone || e.Scale.Exponent != 0 {
		sb.WriteString(", ")
		sb.WriteString(FormatScale(e.Scale))
	}

	if e.Type == model.MetricTypeLinearHistogram && e.BucketSize != nil {
		fmt.Fprintf(&sb, ", bucket size=%d", *e.BucketSize)
	}

	return sb.String()
}
