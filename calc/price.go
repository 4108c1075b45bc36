package calc

import (
	"math"

	"github.com/angas/helen-go/convert"
	"github.com/angas/helen-go/slice"
)

// TotalConsumption is the consumption in kWh over the valid readings.
func TotalConsumption(readings []Reading) float64 {
	return AbsSum(readings)
}

// HourlyCosts returns |(price+margin)*measurement| for every aligned pair, in c.
func HourlyCosts(pairs []Pair, margin float64) []float64 {
	costs := make([]float64, len(pairs))
	for i, p := range pairs {
		costs[i] = math.Abs((p.Price + margin) * p.Measurement)
	}
	return costs
}

// SpotCost is the total cost in euros including tax of the aligned pairs,
// when prices are c/kWh and the margin is added to every hourly price.
func SpotCost(pairs []Pair, margin, tax float64) float64 {
	total := slice.Sum(HourlyCosts(pairs, margin), func(c float64) float64 { return c })
	return convert.CentsToEuros(total * (1 + tax))
}

// TransferFees is the grid transfer cost in euros. feePerUnit is c/kWh and
// basePrice is euros.
func TransferFees(consumption, feePerUnit, basePrice float64) float64 {
	return convert.CentsToEuros(consumption*feePerUnit) + basePrice
}

// UsageImpact calculates how the timing of consumption moved the price, in c/kWh:
//
//	(A - B) / E
//
// A is the sum of |price*measurement| over the aligned pairs, B is the
// average valid price times E, and E is the total valid consumption, also
// over hours without a valid price.
// It is 0 when either series is empty or nothing aligns.
func UsageImpact(prices, measurements []Reading) float64 {
	if len(prices) == 0 || len(measurements) == 0 {
		return 0
	}

	pairs := Align(prices, measurements)
	if len(pairs) == 0 {
		return 0
	}

	weighted := slice.Sum(pairs, func(p Pair) float64 { return math.Abs(p.Price * p.Measurement) })

	validPrices := Valid(prices)
	averagePrice := AbsSum(validPrices) / float64(len(validPrices))
	consumption := AbsSum(measurements)
	if consumption == 0 {
		return 0
	}

	return (weighted - averagePrice*consumption) / consumption
}
