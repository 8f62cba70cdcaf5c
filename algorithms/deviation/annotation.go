package deviation

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-intonation/logging"
)

// Interval marks frames [StartFrame, EndFrame) of a recording as sounding Expected Hz
type Interval struct {
	StartFrame int     `json:"start_frame"`
	EndFrame   int     `json:"end_frame"` // exclusive
	Expected   float64 `json:"expected"`
	Label      string  `json:"label,omitempty"`
}

// Annotation is hand-labelled ground truth for one recording
type Annotation struct {
	Name      string     `json:"name"`
	Intervals []Interval `json:"intervals"`
}

// Validate rejects empty, inverted, overlapping or non-positive intervals
func (a *Annotation) Validate() error {
	if len(a.Intervals) == 0 {
		return fmt.Errorf("%w: annotation %q has no intervals", ErrInvalidConfiguration, a.Name)
	}

	for i, iv := range a.Intervals {
		if iv.StartFrame < 0 || iv.EndFrame <= iv.StartFrame {
			return fmt.Errorf("%w: interval %d has frames [%d, %d)",
				ErrInvalidConfiguration, i, iv.StartFrame, iv.EndFrame)
		}
		if !(iv.Expected > 0) || math.IsInf(iv.Expected, 0) {
			return fmt.Errorf("%w: interval %d expects %v Hz", ErrInvalidConfiguration, i, iv.Expected)
		}
	}

	sorted := slices.Clone(a.Intervals)
	slices.SortFunc(sorted, func(x, y Interval) int {
		return cmp.Compare(x.StartFrame, y.StartFrame)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].StartFrame < sorted[i-1].EndFrame {
			return fmt.Errorf("%w: intervals starting at frames %d and %d overlap",
				ErrInvalidConfiguration, sorted[i-1].StartFrame, sorted[i].StartFrame)
		}
	}

	return nil
}

// Expand returns the expected frequency of each of numFrames frames, NaN where
// nothing is annotated. Intervals past the end are clipped.
func (a *Annotation) Expand(numFrames int) []float64 {
	out := make([]float64, max(numFrames, 0))
	for i := range out {
		out[i] = math.NaN()
	}
	for _, iv := range a.Intervals {
		for f := max(iv.StartFrame, 0); f < iv.EndFrame && f < len(out); f++ {
			out[f] = iv.Expected
		}
	}
	return out
}

// CompareAnnotation measures each annotated, pitched frame against the
// frequency its interval expects. Records carry the interval index in
// ReferenceIndex. Deviations use the same units and cents folding as Analyze.
func CompareAnnotation(samples []float64, ann *Annotation, params Params) (*Result, error) {
	if ann == nil {
		return nil, fmt.Errorf("%w: annotation is nil", ErrInvalidConfiguration)
	}
	params, err := params.resolve()
	if err != nil {
		return nil, err
	}
	if err := ann.Validate(); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component":  "annotation_compare",
		"annotation": ann.Name,
	})

	result := &Result{
		Mode: params.Mode,
		Mask: make([]bool, len(samples)),
	}

	for ivIdx, iv := range ann.Intervals {
		end := min(iv.EndFrame, len(samples))
		for i := iv.StartFrame; i < end; i++ {
			f := samples[i]
			if !isValidSample(f, params.ValidityFloor) {
				continue
			}
			result.Mask[i] = true
			result.Records = append(result.Records, Record{
				Index:          i,
				Detected:       f,
				Reference:      iv.Expected,
				ReferenceIndex: ivIdx,
				Deviation:      deviate(f, iv.Expected, params.Mode),
			})
		}
	}

	if len(result.Records) == 0 {
		return nil, fmt.Errorf("%w: no pitched frames inside %d annotated intervals",
			ErrEmptyInput, len(ann.Intervals))
	}

	// intervals may be listed in any order; records follow the input
	slices.SortFunc(result.Records, func(x, y Record) int {
		return cmp.Compare(x.Index, y.Index)
	})
	result.Summary = summarize(result.Records, params.Tolerance)

	logger.Debug("Annotation comparison completed", logging.Fields{
		"records":  len(result.Records),
		"mean_abs": result.Summary.MeanAbs,
	})

	return result, nil
}
