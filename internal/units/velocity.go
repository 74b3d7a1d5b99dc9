// Package units converts sprint speeds between the units the reports and
// the API accept. All speeds are computed and stored in metres per second.
package units

import "fmt"

// Unit constants
const (
	MPS  = "mps"
	KMPH = "kmph"
	KPH  = "kph"
	MPH  = "mph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, KMPH, KPH, MPH}

const mpsToMPH = 2.2369362920544

// IsValid reports whether unit is one of ValidUnits. Matching is case-sensitive.
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated list of valid units for error messages
func GetValidUnitsString() string {
	return "mps, kmph, kph, mph"
}

// ConvertSpeed converts a speed from metres per second to targetUnits.
// Unknown units fall back to m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case KMPH, KPH:
		return speedMPS * 3.6
	case MPH:
		return speedMPS * mpsToMPH
	default:
		return speedMPS
	}
}

// ConvertToMPS is the inverse of ConvertSpeed.
func ConvertToMPS(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case KMPH, KPH:
		return speed / 3.6
	case MPH:
		return speed / mpsToMPH
	default:
		return speed
	}
}

// Label returns the display suffix for a unit.
func Label(unit string) string {
	switch unit {
	case KMPH, KPH:
		return "km/h"
	case MPH:
		return "mph"
	default:
		return "m/s"
	}
}

// FormatSpeed renders speedMPS in the given units with two decimals,
// e.g. "6.67 m/s".
func FormatSpeed(speedMPS float64, unit string) string {
	return fmt.Sprintf("%.2f %s", ConvertSpeed(speedMPS, unit), Label(unit))
}
