package portfolio

import (
	"fmt"
	"math"
	"strconv"
)

// Percent is a ratio expressed in percent: 12.5 means 12.5%.
type Percent float64

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

// IsFinite reports whether p is neither NaN nor infinite.
func (p Percent) IsFinite() bool {
	return !math.IsNaN(float64(p)) && !math.IsInf(float64(p), 0)
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" || res == "-0.00%" {
		return "-"
	}
	return res
}

// MarshalJSON writes the percentage with 4 decimals.
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.IsFinite() {
		return []byte("0"), nil
	}
	return []byte(strconv.FormatFloat(float64(p), 'f', 4, 64)), nil
}
