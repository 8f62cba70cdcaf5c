package deviation

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds aggregate statistics over the records of one run.
// All deviation statistics are in the unit of the run's Mode.
type Summary struct {
	Count int `json:"count"`

	MeanAbs   float64 `json:"mean_abs"`
	MaxAbs    float64 `json:"max_abs"`
	MinAbs    float64 `json:"min_abs"`
	MedianAbs float64 `json:"median_abs"` // mean of the two middle values for an even count

	MeanSigned float64 `json:"mean_signed"`
	StdDev     float64 `json:"std_dev"` // sample standard deviation of signed deviations, 0 for one record

	Tolerance              float64  `json:"tolerance"`
	WithinTolerance        []Record `json:"within_tolerance"` // records with |deviation| < Tolerance
	MeanAbsWithinTolerance float64  `json:"mean_abs_within_tolerance"`
}

// WithinRatio is the fraction of records inside the tolerance
func (s Summary) WithinRatio() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(len(s.WithinTolerance)) / float64(s.Count)
}

// summarize expects at least one record
func summarize(records []Record, tolerance float64) Summary {
	signed := make([]float64, len(records))
	abs := make([]float64, len(records))
	for i, r := range records {
		signed[i] = r.Deviation
		abs[i] = math.Abs(r.Deviation)
	}

	s := Summary{
		Count:      len(records),
		MeanAbs:    stat.Mean(abs, nil),
		MaxAbs:     floats.Max(abs),
		MinAbs:     floats.Min(abs),
		MeanSigned: stat.Mean(signed, nil),
		Tolerance:  tolerance,
	}

	if len(signed) > 1 {
		s.StdDev = stat.StdDev(signed, nil)
	}

	sorted := slices.Clone(abs)
	slices.Sort(sorted)
	s.MedianAbs = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if n := len(sorted); n%2 == 0 {
		// Empirical picks the lower middle value
		s.MedianAbs = (s.MedianAbs + sorted[n/2]) / 2
	}

	var within []float64
	for i, r := range records {
		if abs[i] < tolerance {
			s.WithinTolerance = append(s.WithinTolerance, r)
			within = append(within, abs[i])
		}
	}
	if len(within) > 0 {
		s.MeanAbsWithinTolerance = stat.Mean(within, nil)
	}

	return s
}
