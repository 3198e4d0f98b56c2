package engine

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/AbdouB/dialogue/internal/models"
)

// Severity breakpoints on the relative deviation past the threshold
const (
	HighDeviation   = 0.5
	MediumDeviation = 0.2
)

// Deviation is how far value lies past threshold, relative to the
// threshold. A zero threshold gives +Inf.
func Deviation(value, threshold float64, dir models.Direction) float64 {
	diff := value - threshold
	if dir == models.DirectionBelow {
		diff = threshold - value
	}
	if threshold == 0 {
		return math.Inf(1)
	}
	return diff / math.Abs(threshold)
}

// ClassifySeverity grades a triggered concern: above HighDeviation is
// high, above MediumDeviation medium, anything else low
func ClassifySeverity(value, threshold float64, dir models.Direction) models.Severity {
	d := Deviation(value, threshold, dir)
	switch {
	case d > HighDeviation:
		return models.SeverityHigh
	case d > MediumDeviation:
		return models.SeverityMedium
	}
	return models.SeverityLow
}

// FormatValue renders a metric value with thousands separators and at
// most one decimal
func FormatValue(v float64) string {
	return humanize.CommafWithDigits(math.Round(v*10)/10, 1)
}

func interpolate(text string, value float64) string {
	return strings.ReplaceAll(text, models.ValuePlaceholder, FormatValue(value))
}
