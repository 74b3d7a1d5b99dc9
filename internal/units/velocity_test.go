package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid mps", MPS, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"valid mph", MPH, true},
		{"invalid unit", "knots", false},
		{"empty unit", "", false},
		{"uppercase MPS", "MPS", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.unit); got != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name     string
		speedMPS float64
		unit     string
		expected float64
	}{
		{"sprint pace in mps", 6.5, MPS, 6.5},
		{"10 m/s to kmph", 10.0, KMPH, 36.0},
		{"10 m/s to kph", 10.0, KPH, 36.0},
		{"1 m/s to mph", 1.0, MPH, 2.2369362920544},
		{"unknown falls back", 3.0, "furlongs", 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertSpeed(tt.speedMPS, tt.unit)
			if math.Abs(got-tt.expected) > 1e-10 {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.speedMPS, tt.unit, got, tt.expected)
			}
		})
	}
}

func TestRoundTripConversions(t *testing.T) {
	for _, unit := range ValidUnits {
		for _, v := range []float64{0, 1.5, 6.667, 11.2} {
			back := ConvertToMPS(ConvertSpeed(v, unit), unit)
			if math.Abs(back-v) > 1e-9 {
				t.Errorf("round trip %s: %f -> %f", unit, v, back)
			}
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	if got := FormatSpeed(10.0/1.5, MPS); got != "6.67 m/s" {
		t.Errorf("FormatSpeed mps = %q", got)
	}
	if got := FormatSpeed(10, KMPH); got != "36.00 km/h" {
		t.Errorf("FormatSpeed kmph = %q", got)
	}
	if got := GetValidUnitsString(); got != "mps, kmph, kph, mph" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}
