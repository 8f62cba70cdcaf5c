package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/RyanBlaney/sonido-intonation/algorithms/deviation"
	"github.com/RyanBlaney/sonido-intonation/algorithms/tuning"
)

func TestPresetsBuild(t *testing.T) {
	wantLen := map[string]int{
		PresetTwelveTETCents: 128,
		PresetA440Cents:      128,
		PresetCSharpHz:       11,
		PresetRagaHz:         7,
	}

	for _, name := range PresetNames() {
		cfg, err := Preset(name)
		if err != nil {
			t.Fatalf("Preset(%s): %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("%s: Validate: %v", name, err)
		}
		scale, err := cfg.BuildScale()
		if err != nil {
			t.Fatalf("%s: BuildScale: %v", name, err)
		}
		if scale.Len() != wantLen[name] {
			t.Errorf("%s: %d entries, want %d", name, scale.Len(), wantLen[name])
		}
	}
}

func TestPresetParams(t *testing.T) {
	cfg, _ := Preset(PresetCSharpHz)
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Mode != deviation.ModeHz || p.Tolerance != 2 || p.ValidityFloor != 20 {
		t.Fatalf("params = %+v", p)
	}

	cfg, _ = Preset("")
	p, _ = cfg.Params()
	if p.Mode != deviation.ModeCents || p.Tolerance != 10 {
		t.Fatalf("default params = %+v", p)
	}
	scale, _ := cfg.BuildScale()
	if scale.Frequencies[tuning.A4MIDI] != 440.8 {
		t.Fatalf("default anchor = %v", scale.Frequencies[tuning.A4MIDI])
	}
}

func TestUnknownPreset(t *testing.T) {
	if _, err := Preset("pythagorean"); !errors.Is(err, tuning.ErrInvalidConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadLiteralOverPreset(t *testing.T) {
	base, _ := Preset(PresetRagaHz)
	cfg, err := Load(filepath.Join("testdata", "literal_cents.json"), base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Name != "just-intonation-c" || cfg.Mode != "cents" || cfg.Tolerance != 15 {
		t.Fatalf("cfg = %+v", cfg)
	}
	// untouched by the file
	if cfg.SampleRate != 32000 || cfg.ValidityFloor != 20 {
		t.Fatalf("base values lost: %+v", cfg)
	}

	scale, err := cfg.BuildScale()
	if err != nil {
		t.Fatalf("BuildScale: %v", err)
	}
	if scale.Name != "just C major" || scale.Len() != 7 || scale.Label(6) != "B" {
		t.Fatalf("scale = %+v", scale)
	}
	if base.Scale.Kind != ScaleRaga {
		t.Fatal("Load modified the base config")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"cents.json":    `{"mode":"cents","tolerance":0}`,
		"empty.json":    `{"scale":{"kind":"equal_temperament","base_freq":440,"num_entries":0}}`,
		"base.json":     `{"scale":{"kind":"octave_series","base_freq":-1}}`,
		"kind.json":     `{"scale":{"kind":"pentatonic"}}`,
		"mode.json":     `{"mode":"semitones"}`,
		"syntax.json":   `{"mode":`,
		"negative.json": `{"mode":"hz","tolerance":-2}`,
		"floor.json":    `{"mode":"cents","tolerance":10,"validity_floor":-1}`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path, nil); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadAnnotation(t *testing.T) {
	ann, err := LoadAnnotation(filepath.Join("testdata", "raga2_annotation.json"))
	if err != nil {
		t.Fatalf("LoadAnnotation: %v", err)
	}
	if len(ann.Intervals) != 7 || ann.Intervals[0].Label != "Sa" {
		t.Fatalf("annotation = %+v", ann)
	}

	expected := ann.Expand(250)
	if expected[25] != 261.6 || expected[47] != 261.6 || !math.IsNaN(expected[48]) || expected[242] != 493.9 {
		t.Fatal("expanded annotation does not match the interval table")
	}
}
