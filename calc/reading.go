package calc

import (
	"math"

	"github.com/angas/helen-go/slice"
)

const StatusValid = "valid"

// Reading is one interval value of a measurement or spot price series.
type Reading struct {
	Status string
	Value  float64
}

func (r Reading) Valid() bool {
	return r.Status == StatusValid
}

// Pair is a price and a measurement for the same interval.
type Pair struct {
	Price       float64
	Measurement float64
}

// Align pairs prices and measurements by position. Only the first
// min(len(prices), len(measurements)) slots are considered and a slot is
// dropped when either side is not valid.
func Align(prices, measurements []Reading) []Pair {
	length := min(len(prices), len(measurements))
	pairs := make([]Pair, 0, length)
	for i := range length {
		p, m := prices[i], measurements[i]
		if !p.Valid() || !m.Valid() {
			continue
		}
		pairs = append(pairs, Pair{Price: p.Value, Measurement: m.Value})
	}
	return pairs
}

// Valid returns the valid readings in order.
func Valid(readings []Reading) []Reading {
	return slice.Filter(readings, Reading.Valid)
}

// AbsSum is the sum of the absolute values of the valid readings.
func AbsSum(readings []Reading) float64 {
	var total float64
	for _, r := range readings {
		if r.Valid() {
			total += math.Abs(r.Value)
		}
	}
	return total
}
