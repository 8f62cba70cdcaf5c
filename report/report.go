// Package report renders deviation analysis results as plain text.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/RyanBlaney/sonido-intonation/algorithms/deviation"
	"github.com/RyanBlaney/sonido-intonation/algorithms/tuning"
)

// WriteSummary prints the aggregate statistics of one run
func WriteSummary(w io.Writer, title string, scale *tuning.Scale, res *deviation.Result) error {
	s := res.Summary
	unit := res.Mode.Unit()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "== %s ==\n", title)
	if scale != nil {
		fmt.Fprintf(tw, "Reference scale:\t%s (%d entries)\n", scale.Name, scale.Len())
	}
	fmt.Fprintf(tw, "Pitched frames:\t%d of %d\n", s.Count, len(res.Mask))
	fmt.Fprintf(tw, "Average absolute deviation:\t%.2f %s\n", s.MeanAbs, unit)
	fmt.Fprintf(tw, "Maximum absolute deviation:\t%.2f %s\n", s.MaxAbs, unit)
	fmt.Fprintf(tw, "Minimum absolute deviation:\t%.2f %s\n", s.MinAbs, unit)
	fmt.Fprintf(tw, "Median absolute deviation:\t%.2f %s\n", s.MedianAbs, unit)
	fmt.Fprintf(tw, "Mean signed deviation:\t%+.2f %s (std %.2f)\n", s.MeanSigned, unit, s.StdDev)

	if n := len(s.WithinTolerance); n > 0 {
		fmt.Fprintf(tw, "Within %.2f %s:\t%d (%.1f%%), average %.2f %s\n",
			s.Tolerance, unit, n, 100*s.WithinRatio(), s.MeanAbsWithinTolerance, unit)
	} else {
		fmt.Fprintf(tw, "Within %.2f %s:\tnone\n", s.Tolerance, unit)
	}

	return tw.Flush()
}

// WriteWithinTolerance lists the records inside the tolerance in frame order,
// labelled from scale when given
func WriteWithinTolerance(w io.Writer, scale *tuning.Scale, res *deviation.Result) error {
	return writeWithin(w, scale, res, res.Summary.WithinTolerance)
}

// WriteWithinToleranceByFrequency lists the same records as WriteWithinTolerance
// ordered by detected frequency, frame order breaking ties
func WriteWithinToleranceByFrequency(w io.Writer, scale *tuning.Scale, res *deviation.Result) error {
	within := slices.Clone(res.Summary.WithinTolerance)
	slices.SortStableFunc(within, func(a, b deviation.Record) int {
		return cmp.Compare(a.Detected, b.Detected)
	})
	return writeWithin(w, scale, res, within)
}

func writeWithin(w io.Writer, scale *tuning.Scale, res *deviation.Result, within []deviation.Record) error {
	unit := res.Mode.Unit()
	if len(within) == 0 {
		_, err := fmt.Fprintf(w, "No frequencies within %.2f %s of the reference scale.\n", res.Summary.Tolerance, unit)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Frame\tDetected (Hz)\tClosest (Hz)\tNote\tDeviation (%s)\t\n", unit)
	for _, r := range within {
		note := ""
		if scale != nil {
			note = scale.Label(r.ReferenceIndex)
		}
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%s\t%+.2f\t\n", r.Index, r.Detected, r.Reference, note, r.Deviation)
	}
	return tw.Flush()
}

// WriteHistogram prints a bar per bin of the deviation distribution over the data range
func WriteHistogram(w io.Writer, res *deviation.Result, bins int) error {
	lo, hi := deviation.DataRange(res)
	dividers, counts, err := deviation.Histogram(res, bins, lo, hi)
	if err != nil {
		return err
	}

	peak := 0.0
	for _, c := range counts {
		peak = max(peak, c)
	}

	const width = 40
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	for i, c := range counts {
		bar := 0
		if peak > 0 {
			bar = int(c / peak * width)
		}
		fmt.Fprintf(tw, "[%+.1f, %+.1f)\t%d\t%s\n", dividers[i], dividers[i+1], int(c), strings.Repeat("#", bar))
	}
	return tw.Flush()
}

// WriteComparison prints two results side by side, typically the same
// recording run through two different pitch trackers
func WriteComparison(w io.Writer, nameA string, a *deviation.Result, nameB string, b *deviation.Result) error {
	if a.Mode != b.Mode {
		return fmt.Errorf("cannot compare %s deviations with %s deviations", a.Mode, b.Mode)
	}
	unit := a.Mode.Unit()
	sa, sb := a.Summary, b.Summary

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t%s\t\n", nameA, nameB)
	fmt.Fprintf(tw, "pitched frames\t%d\t%d\t\n", sa.Count, sb.Count)
	fmt.Fprintf(tw, "mean |dev| (%s)\t%.2f\t%.2f\t\n", unit, sa.MeanAbs, sb.MeanAbs)
	fmt.Fprintf(tw, "median |dev| (%s)\t%.2f\t%.2f\t\n", unit, sa.MedianAbs, sb.MedianAbs)
	fmt.Fprintf(tw, "max |dev| (%s)\t%.2f\t%.2f\t\n", unit, sa.MaxAbs, sb.MaxAbs)
	fmt.Fprintf(tw, "within tolerance\t%.1f%%\t%.1f%%\t\n", 100*sa.WithinRatio(), 100*sb.WithinRatio())

	agree, both := frameAgreement(a, b)
	if both > 0 {
		fmt.Fprintf(tw, "same reference\t%d of %d shared frames\t\t\n", agree, both)
	}
	return tw.Flush()
}

// frameAgreement counts frames pitched in both results and, of those, the
// frames matched to the same reference entry
func frameAgreement(a, b *deviation.Result) (agree, both int) {
	byIndex := make(map[int]int, len(b.Records))
	for _, r := range b.Records {
		byIndex[r.Index] = r.ReferenceIndex
	}
	for _, r := range a.Records {
		if ref, ok := byIndex[r.Index]; ok {
			both++
			if ref == r.ReferenceIndex {
				agree++
			}
		}
	}
	return agree, both
}
