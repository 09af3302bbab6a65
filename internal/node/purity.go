package node

import "fmt"

// Purity is the extraction-rate tier of a miner's resource node. Its value
// divides miner output, so Pure yields the most.
type Purity int

// Purity values. NA applies to every non-miner.
const (
	PurityNA     Purity = 0
	PurityPure   Purity = 1
	PurityNormal Purity = 2
	PurityImpure Purity = 4
)

// purityLevels orders purities for numeric editing: level 1 is Impure.
var purityLevels = [...]Purity{PurityImpure, PurityNormal, PurityPure}

// ParsePurity converts a stored purity value, rejecting unknown values.
func ParsePurity(v int) (Purity, error) {
	p := Purity(v)
	if !p.Valid() {
		return PurityNA, fmt.Errorf("invalid purity %d", v)
	}
	return p, nil
}

// PurityFromLevel maps an edit level (1 Impure, 2 Normal, 3 Pure) to a
// purity, clamping out-of-range levels.
func PurityFromLevel(level int) Purity {
	level = clampInt(level, 1, len(purityLevels))
	return purityLevels[level-1]
}

// Level returns the edit level of p, or 0 for NA.
func (p Purity) Level() int {
	for i, q := range purityLevels {
		if q == p {
			return i + 1
		}
	}
	return 0
}

// Valid reports whether p is one of the defined purities.
func (p Purity) Valid() bool {
	switch p {
	case PurityNA, PurityPure, PurityNormal, PurityImpure:
		return true
	}
	return false
}

// Multiplier returns the divisor applied to miner output.
func (p Purity) Multiplier() float64 {
	return float64(p)
}

// String returns the purity name, empty for NA.
func (p Purity) String() string {
	switch p {
	case PurityPure:
		return "Pure"
	case PurityNormal:
		return "Normal"
	case PurityImpure:
		return "Impure"
	}
	return ""
}
