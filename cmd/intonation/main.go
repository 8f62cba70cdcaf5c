package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/RyanBlaney/sonido-intonation/algorithms/deviation"
	"github.com/RyanBlaney/sonido-intonation/algorithms/tuning"
	"github.com/RyanBlaney/sonido-intonation/config"
	"github.com/RyanBlaney/sonido-intonation/logging"
	"github.com/RyanBlaney/sonido-intonation/pitchtrack"
	"github.com/RyanBlaney/sonido-intonation/report"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[0], err)
		os.Exit(1)
	}
}

const help string = `invalid parameters
usage:
  intonation [flags] analyze TRACK_FILE...
  intonation [flags] compare TRACK_A TRACK_B
  intonation presets`

func usage() error { return errors.New(help) }

type options struct {
	verbose     bool
	logLevel    string
	progress    bool
	preset      string
	configPath  string
	annotations string
	table       bool
	histogram   bool
	sortFreq    bool
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options

	fs := flag.NewFlagSet("intonation", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.verbose, "v", false, "Print debug logging (same as -log-level debug)")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.progress, "progress", true, "Show a progress bar when analyzing several files")
	fs.StringVar(&opts.preset, "preset", config.PresetTwelveTETCents,
		"Analysis preset ("+strings.Join(config.PresetNames(), ", ")+")")
	fs.StringVar(&opts.configPath, "config", "", "JSON config applied over the preset")
	fs.StringVar(&opts.annotations, "annotations", "", "JSON ground-truth intervals to compare every track against")
	fs.BoolVar(&opts.table, "table", false, "List the frames within tolerance")
	fs.BoolVar(&opts.sortFreq, "sort-freq", false, "Order the -table listing by detected frequency")
	fs.BoolVar(&opts.histogram, "hist", false, "Print a deviation histogram")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level, err := logging.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	if opts.verbose {
		level = logging.DebugLevel
	}
	logger := logging.NewLogger(stderr, stderr)
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)

	rest := fs.Args()
	switch {
	case len(rest) < 1:
		return usage()
	case rest[0] == "presets" && len(rest) == 1:
		return presets(stdout)
	case rest[0] == "analyze" && len(rest) >= 2:
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		return analyze(cfg, opts, rest[1:], stdout, stderr)
	case rest[0] == "compare" && len(rest) == 3:
		cfg, err := loadConfig(opts)
		if err != nil {
			return err
		}
		return compare(cfg, rest[1], rest[2], stdout)
	default:
		return usage()
	}
}

func loadConfig(opts options) (*config.AnalysisConfig, error) {
	cfg, err := config.Preset(opts.preset)
	if err != nil {
		return nil, err
	}
	if opts.configPath != "" {
		return config.Load(opts.configPath, cfg)
	}
	return cfg, cfg.Validate()
}

func presets(out io.Writer) error {
	for _, name := range config.PresetNames() {
		cfg, err := config.Preset(name)
		if err != nil {
			return err
		}
		scale, err := cfg.BuildScale()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-12s %-28s mode=%-5s tolerance=%g\n", name, scale.Name, cfg.Mode, cfg.Tolerance)
	}
	return nil
}

// batch bundles what every file in a batch is measured with
type batch struct {
	cfg        *config.AnalysisConfig
	scale      *tuning.Scale
	params     deviation.Params
	annotation *deviation.Annotation
	analyzer   *deviation.Analyzer
}

func newBatch(cfg *config.AnalysisConfig, annotationPath string) (*batch, error) {
	scale, err := cfg.BuildScale()
	if err != nil {
		return nil, err
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}

	a := &batch{
		cfg:      cfg,
		scale:    scale,
		params:   params,
		analyzer: deviation.NewAnalyzer(params),
	}
	if annotationPath != "" {
		if a.annotation, err = config.LoadAnnotation(annotationPath); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *batch) load(path string) (*pitchtrack.Track, *deviation.Result, error) {
	track, err := pitchtrack.Load(path, a.cfg.SampleRate, a.cfg.HopSize)
	if err != nil {
		return nil, nil, err
	}
	res, err := a.analyzer.AnalyzeScale(track.Frequencies, a.scale)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", track.Name, err)
	}
	return track, res, nil
}

func analyze(cfg *config.AnalysisConfig, opts options, paths []string, stdout, stderr io.Writer) error {
	a, err := newBatch(cfg, opts.annotations)
	if err != nil {
		return err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "cli",
		"preset":    cfg.Name,
	})

	var progress *report.Progress
	if opts.progress && len(paths) > 1 {
		progress = report.NewProgress(stderr, "analyzing ", len(paths))
	}

	failed := 0
	for _, path := range paths {
		if err := a.analyzeFile(path, opts, stdout); err != nil {
			failed++
			logger.Error(err, "Analysis failed", logging.Fields{"file": path})
		}
		if progress != nil {
			progress.Increment()
		}
	}
	if progress != nil {
		progress.Wait()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}

func (a *batch) analyzeFile(path string, opts options, out io.Writer) error {
	track, res, err := a.load(path)
	if err != nil {
		return err
	}

	if err := report.WriteSummary(out, track.Name, a.scale, res); err != nil {
		return err
	}
	if opts.table {
		write := report.WriteWithinTolerance
		if opts.sortFreq {
			write = report.WriteWithinToleranceByFrequency
		}
		if err := write(out, a.scale, res); err != nil {
			return err
		}
	}
	if opts.histogram && a.cfg.HistogramBins > 0 {
		if err := report.WriteHistogram(out, res, a.cfg.HistogramBins); err != nil {
			return err
		}
	}

	if a.annotation != nil {
		truth, err := deviation.CompareAnnotation(track.Frequencies, a.annotation, a.params)
		if err != nil {
			return fmt.Errorf("%s against %s: %w", track.Name, a.annotation.Name, err)
		}
		title := fmt.Sprintf("%s vs. %s", track.Name, a.annotation.Name)
		if err := report.WriteSummary(out, title, nil, truth); err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	return nil
}

func compare(cfg *config.AnalysisConfig, pathA, pathB string, out io.Writer) error {
	a, err := newBatch(cfg, "")
	if err != nil {
		return err
	}

	trackA, resA, err := a.load(pathA)
	if err != nil {
		return err
	}
	trackB, resB, err := a.load(pathB)
	if err != nil {
		return err
	}

	if trackA.Len() != trackB.Len() {
		logging.Warn("Tracks differ in length, frame agreement covers the shorter one", logging.Fields{
			"a_frames": trackA.Len(),
			"b_frames": trackB.Len(),
		})
	}

	return report.WriteComparison(out, trackA.Name, resA, trackB.Name, resB)
}
