package dynamic

import (
	"fmt"
	"strconv"
	"strings"
)

// Dimension names a physical dimension. The names double as primitive type
// names in the grammar, so a property typed "length" resolves directly to
// DimLength.
type Dimension string

const (
	DimLength      Dimension = "length"
	DimMass        Dimension = "mass"
	DimTime        Dimension = "time"
	DimTemperature Dimension = "temperature"
	DimCurrent     Dimension = "current"
)

// Quantity is a parsed physical value: the magnitude converted to the SI
// base unit of its dimension, plus the original spelling for messages.
type Quantity struct {
	Magnitude float64 // in the dimension's base unit
	Dimension Dimension
	Raw       string // as written, e.g. "0.01 km"
}

type unitDef struct {
	dim    Dimension
	factor float64 // multiplier to the base unit
}

// unitTable maps unit symbols to their dimension and linear factor to the
// SI base unit (m, kg, s, K, A). Symbols are case-sensitive.
var unitTable = map[string]unitDef{
	// length, base m
	"mm": {DimLength, 0.001},
	"cm": {DimLength, 0.01},
	"m":  {DimLength, 1},
	"km": {DimLength, 1000},

	// mass, base kg
	"mg": {DimMass, 1e-6},
	"g":  {DimMass, 0.001},
	"kg": {DimMass, 1},
	"t":  {DimMass, 1000},

	// time, base s
	"ms":  {DimTime, 0.001},
	"s":   {DimTime, 1},
	"min": {DimTime, 60},
	"h":   {DimTime, 3600},
	"d":   {DimTime, 86400},

	// temperature, base K
	"K": {DimTemperature, 1},

	// current, base A
	"mA": {DimCurrent, 0.001},
	"A":  {DimCurrent, 1},
}

// ParseQuantity parses a "<number> <unit>" string such as "10 m" or
// "0.5 kg". The returned error message begins with "Invalid quantity" so
// callers can surface it directly as a validation message.
func ParseQuantity(s string) (Quantity, error) {
	trimmed := strings.TrimSpace(s)
	numPart, unitPart, ok := splitQuantity(trimmed)
	if !ok {
		return Quantity{}, fmt.Errorf("Invalid quantity '%s'", s)
	}
	mag, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return Quantity{}, fmt.Errorf("Invalid quantity '%s'", s)
	}
	unit, known := unitTable[unitPart]
	if !known {
		return Quantity{}, fmt.Errorf("Invalid quantity '%s': unknown unit '%s'", s, unitPart)
	}
	return Quantity{Magnitude: mag * unit.factor, Dimension: unit.dim, Raw: trimmed}, nil
}

// ParseQuantityAs parses s and additionally requires it to carry the given
// dimension. A well-formed quantity of the wrong dimension is reported as
// "Physical type mismatch".
func ParseQuantityAs(s string, dim Dimension) (Quantity, error) {
	q, err := ParseQuantity(s)
	if err != nil {
		return Quantity{}, err
	}
	if q.Dimension != dim {
		return Quantity{}, fmt.Errorf("Physical type mismatch: expected %s, got %s", dim, q.Dimension)
	}
	return q, nil
}

// splitQuantity cuts "<number> <unit>" at the boundary between the numeric
// prefix and the unit symbol. The space is optional ("10m" parses the same
// as "10 m").
func splitQuantity(s string) (num, unit string, ok bool) {
	i := 0
	for i < len(s) {
		c := s[i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' {
			// 'e' only continues a number when followed by a digit or sign,
			// otherwise it starts a unit symbol.
			if c == 'e' || c == 'E' {
				if i+1 >= len(s) {
					break
				}
				next := s[i+1]
				if !(next >= '0' && next <= '9') && next != '-' && next != '+' {
					break
				}
			}
			i++
			continue
		}
		break
	}
	num = s[:i]
	unit = strings.TrimSpace(s[i:])
	if num == "" || unit == "" {
		return "", "", false
	}
	return num, unit, true
}
