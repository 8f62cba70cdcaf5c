package deviation

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram bins the deviations of r into bins equal-width bins over [lo, hi).
// It returns the bins+1 dividers and the per-bin counts; deviations outside
// the range are not counted.
func Histogram(r *Result, bins int, lo, hi float64) (dividers, counts []float64, err error) {
	if bins <= 0 {
		return nil, nil, fmt.Errorf("%w: histogram needs at least one bin, got %d", ErrInvalidConfiguration, bins)
	}
	if !(hi > lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, nil, fmt.Errorf("%w: histogram range [%v, %v) is empty", ErrInvalidConfiguration, lo, hi)
	}

	dividers = floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = hi // pin the upper edge against rounding in the span step

	var x []float64
	if r != nil {
		for _, rec := range r.Records {
			if rec.Deviation >= lo && rec.Deviation < hi {
				x = append(x, rec.Deviation)
			}
		}
	}
	slices.Sort(x)

	counts = stat.Histogram(nil, dividers, x, nil)
	return dividers, counts, nil
}

// DataRange returns a [lo, hi) range that holds every deviation of r
func DataRange(r *Result) (lo, hi float64) {
	if r == nil || len(r.Records) == 0 {
		return 0, 1
	}
	devs := r.Deviations()
	lo, hi = floats.Min(devs), floats.Max(devs)
	return lo, math.Nextafter(hi, math.Inf(1))
}
