package analytics

import (
	"math"
	"slices"
)

// Percentile returns the p-th percentile of values using linear interpolation
// between the closest ranks. ok is false when values is empty. p is clamped
// to [0, 100] and values is left untouched.
func Percentile(values []float64, p int) (value float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	p = min(max(p, 0), 100)

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	k := float64(len(sorted)-1) * (float64(p) / 100.0)
	f := math.Floor(k)
	c := math.Ceil(k)
	if f == c {
		return sorted[int(k)], true
	}
	return sorted[int(f)]*(c-k) + sorted[int(c)]*(k-f), true
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdev is the Bessel-corrected sample standard deviation. Identical values
// report exactly zero regardless of floating point drift in avg.
func stdev(values []float64, avg float64) float64 {
	if len(values) < 2 {
		return 0
	}
	if slices.Min(values) == slices.Max(values) {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - avg
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
