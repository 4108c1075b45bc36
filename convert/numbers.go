package convert

import "math"

// RoundFloat64 rounds half away from zero to the given number of decimals.
func RoundFloat64(number float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(number*scale) / scale
}

// CentsToEuros converts an amount in cents, e.g. c/kWh times kWh, into euros.
func CentsToEuros(cents float64) float64 {
	return cents / 100
}
