package projector

import (
	"fmt"
	"strings"

	"github.com/litescript/ls-exoplanets/internal/astro"
	"github.com/litescript/ls-exoplanets/internal/catalog"
)

// NotAvailable is shown for missing optional attributes.
const NotAvailable = "N/A"

// HoverText builds the multi-line tooltip for a projected record.
// distance is already expressed in unit.
func HoverText(r catalog.Record, distance float64, unit astro.Unit) string {
	lines := []string{
		r.Name,
		"Temperature: " + formatOptional(r.EqTempK, "%.0f K"),
		fmt.Sprintf("Distance: %.2f %s", distance, unit.Label()),
		"Orbital period: " + formatOptional(yearsOf(r.OrbitalPeriodDays), "%.2f years"),
	}
	if r.PredictedClass != "" {
		lines = append(lines, "Predicted class: "+r.PredictedClass)
	}
	return strings.Join(lines, "\n")
}

func yearsOf(days catalog.Float) catalog.Float {
	if !days.Valid {
		return catalog.None
	}
	return catalog.Some(astro.DaysToYears(days.Value))
}

func formatOptional(f catalog.Float, format string) string {
	if !finite(f) {
		return NotAvailable
	}
	return fmt.Sprintf(format, f.Value)
}
