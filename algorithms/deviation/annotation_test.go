package deviation

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-intonation/internal/testutil"
)

func scaleAnnotation() *Annotation {
	return &Annotation{
		Name: "ascending",
		Intervals: []Interval{
			{StartFrame: 6, EndFrame: 9, Expected: 293.7, Label: "Re"},
			{StartFrame: 1, EndFrame: 4, Expected: 261.6, Label: "Sa"},
		},
	}
}

func TestAnnotationExpand(t *testing.T) {
	got := scaleAnnotation().Expand(8)
	if len(got) != 8 {
		t.Fatalf("len = %d", len(got))
	}
	for i, v := range got {
		switch {
		case i >= 1 && i < 4:
			if v != 261.6 {
				t.Fatalf("frame %d = %v, want 261.6", i, v)
			}
		case i >= 6:
			if v != 293.7 {
				t.Fatalf("frame %d = %v, want 293.7", i, v)
			}
		default:
			if !math.IsNaN(v) {
				t.Fatalf("frame %d = %v, want NaN", i, v)
			}
		}
	}
}

func TestAnnotationValidate(t *testing.T) {
	cases := map[string][]Interval{
		"empty":        nil,
		"inverted":     {{StartFrame: 5, EndFrame: 5, Expected: 100}},
		"negative":     {{StartFrame: -1, EndFrame: 5, Expected: 100}},
		"zero expect":  {{StartFrame: 0, EndFrame: 5, Expected: 0}},
		"overlapping":  {{StartFrame: 0, EndFrame: 5, Expected: 100}, {StartFrame: 4, EndFrame: 8, Expected: 200}},
		"nan expected": {{StartFrame: 0, EndFrame: 5, Expected: math.NaN()}},
	}
	for name, ivs := range cases {
		a := &Annotation{Name: name, Intervals: ivs}
		if err := a.Validate(); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: err = %v, want ErrInvalidConfiguration", name, err)
		}
	}

	adjacent := &Annotation{Intervals: []Interval{
		{StartFrame: 0, EndFrame: 5, Expected: 100},
		{StartFrame: 5, EndFrame: 8, Expected: 200},
	}}
	if err := adjacent.Validate(); err != nil {
		t.Errorf("adjacent intervals rejected: %v", err)
	}
}

func TestCompareAnnotation(t *testing.T) {
	samples := []float64{0, 262.0, 0, 260.6, 300, 300, 293.7, 296.7, 0, 400}

	res, err := CompareAnnotation(samples, scaleAnnotation(), DefaultParams())
	if err != nil {
		t.Fatalf("CompareAnnotation: %v", err)
	}

	wantIdx := []int{1, 3, 6, 7}
	if len(res.Records) != len(wantIdx) {
		t.Fatalf("records = %+v", res.Records)
	}
	for i, r := range res.Records {
		if r.Index != wantIdx[i] {
			t.Fatalf("record %d index = %d, want %d", i, r.Index, wantIdx[i])
		}
		if !res.Mask[r.Index] {
			t.Fatalf("mask not set for frame %d", r.Index)
		}
	}
	testutil.RequireSliceNear(t, res.Deviations(), []float64{0.4, -1.0, 0, 3.0}, 1e-9)
	if res.Records[0].ReferenceIndex != 1 || res.Records[2].ReferenceIndex != 0 {
		t.Fatalf("interval indices: %+v", res.Records)
	}
	if res.Mask[4] || res.Mask[9] {
		t.Fatal("unannotated frames must not be masked in")
	}
	if len(res.Summary.WithinTolerance) != 3 {
		t.Fatalf("within tolerance = %d", len(res.Summary.WithinTolerance))
	}
}

func TestCompareAnnotationClipsAndErrors(t *testing.T) {
	ann := &Annotation{Intervals: []Interval{{StartFrame: 2, EndFrame: 100, Expected: 440}}}

	res, err := CompareAnnotation([]float64{440, 440, 441, 439}, ann, DefaultParams())
	if err != nil {
		t.Fatalf("CompareAnnotation: %v", err)
	}
	if res.Summary.Count != 2 {
		t.Fatalf("count = %d, want 2", res.Summary.Count)
	}

	if _, err := CompareAnnotation([]float64{440, 440, 0, 0}, ann, DefaultParams()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("unpitched annotated frames: err = %v", err)
	}
	if _, err := CompareAnnotation([]float64{440}, ann, DefaultParams()); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("annotation past end: err = %v", err)
	}
	if _, err := CompareAnnotation([]float64{440}, nil, DefaultParams()); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("nil annotation: err = %v", err)
	}
}

func TestHistogram(t *testing.T) {
	res, err := Analyze([]float64{260.0, 300.0, 15.0}, []float64{261.6, 293.7, 329.6}, DefaultParams())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	dividers, counts, err := Histogram(res, 4, -10, 10)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	testutil.RequireSliceNear(t, dividers, []float64{-10, -5, 0, 5, 10}, 1e-12)
	testutil.RequireSliceNear(t, counts, []float64{0, 1, 0, 1}, 0)

	_, counts, _ = Histogram(res, 2, 0, 5)
	testutil.RequireSliceNear(t, counts, []float64{0, 0}, 0)

	lo, hi := DataRange(res)
	_, counts, err = Histogram(res, 3, lo, hi)
	if err != nil {
		t.Fatalf("Histogram over data range: %v", err)
	}
	if counts[0]+counts[1]+counts[2] != 2 {
		t.Fatalf("data range histogram lost records: %v", counts)
	}

	if _, _, err := Histogram(res, 0, -1, 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("zero bins: err = %v", err)
	}
	if _, _, err := Histogram(res, 3, 1, 1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("empty range: err = %v", err)
	}
}
