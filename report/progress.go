package report

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Progress is a single progress bar over a batch of input files
type Progress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// NewProgress starts a bar counting to total, drawn on out
func NewProgress(out io.Writer, label string, total int) *Progress {
	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(out))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(label),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
	return &Progress{p: p, bar: bar}
}

// Increment advances the bar by one file
func (pr *Progress) Increment() {
	pr.bar.Increment()
}

// Wait stops the bar, even if not every file was counted, and waits for the final render
func (pr *Progress) Wait() {
	if !pr.bar.Completed() {
		pr.bar.Abort(false)
	}
	pr.p.Wait()
}
