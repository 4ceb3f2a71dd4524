package scoring

import "math"

const (
	MaxBand       = 9.0
	BandIncrement = 0.5
)

// RoundBand rounds to the nearest half band: a fraction below .25 rounds
// down, below .75 rounds to .5, anything else rounds up.
func RoundBand(v float64) float64 {
	if v <= 0 {
		return 0
	}
	whole := math.Floor(v)
	frac := v - whole
	switch {
	case frac < 0.25:
		return whole
	case frac < 0.75:
		return whole + BandIncrement
	default:
		return whole + 1
	}
}

// Aggregate averages section bands into the exam-level band. A section
// without a score (nil) contributes 0.
func Aggregate(bands []*float64) float64 {
	if len(bands) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bands {
		if b != nil {
			sum += *b
		}
	}
	return RoundBand(sum / float64(len(bands)))
}

// IsValidBand reports whether v is on the 0..9 half-band scale.
func IsValidBand(v float64) bool {
	if v < 0 || v > MaxBand {
		return false
	}
	return math.Mod(v, BandIncrement) == 0
}
