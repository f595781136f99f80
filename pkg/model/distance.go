package model

import "github.com/shopspring/decimal"

// GridPrecision is the arc length resolution shared by the geometry builder
// and the trajectory interpolator. Both sides must round distances with the
// helpers below or the arc length join silently misses.
const GridPrecision = 0.1

// RoundDistance rounds a distance to one decimal meter, ties to even.
func RoundDistance(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(1).InexactFloat64()
}

// DistanceKey maps a distance onto the arc length grid, expressed in tenths
// of a meter. Both arc length tables and trajectory samples use this key for
// the equality join.
func DistanceKey(v float64) int64 {
	return decimal.NewFromFloat(v).RoundBank(1).Mul(decimal.NewFromInt(10)).IntPart()
}
