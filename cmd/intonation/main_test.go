package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTrack(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPresets(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run([]string{"presets"}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"12tet-cents", "csharp-hz", "raga-hz", "a440-cents"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("presets output missing %s:\n%s", want, out.String())
		}
	}
}

func TestRunAnalyzeRaga(t *testing.T) {
	dir := t.TempDir()
	track := writeTrack(t, dir, "take.txt", "0\n260.0\n300.0\n15.0\n")

	var out, errOut bytes.Buffer
	err := run([]string{"-preset", "raga-hz", "-table", "-hist", "analyze", track}, &out, &errOut)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, errOut.String())
	}

	s := out.String()
	for _, want := range []string{"== take.txt ==", "Average absolute deviation:", "3.95 Hz", "Sa"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestRunAnalyzeBatchContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeTrack(t, dir, "good.txt", "440.0\n441.0\n")
	silent := writeTrack(t, dir, "silent.txt", "0\n0\n10\n")
	missing := filepath.Join(dir, "missing.txt")

	var out, errOut bytes.Buffer
	err := run([]string{"-progress=false", "-preset", "a440-cents", "analyze", silent, missing, good}, &out, &errOut)
	if err == nil || !strings.Contains(err.Error(), "2 of 3 files failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out.String(), "== good.txt ==") {
		t.Fatalf("good file not reported:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "no valid pitch samples") {
		t.Fatalf("empty-input failure not logged:\n%s", errOut.String())
	}
}

func TestRunAnalyzeWithAnnotation(t *testing.T) {
	dir := t.TempDir()
	track := writeTrack(t, dir, "take.txt", "0\n261.0\n262.0\n0\n294.0\n")
	ann := writeTrack(t, dir, "truth.json",
		`{"name":"truth","intervals":[{"start_frame":1,"end_frame":3,"expected":261.6},{"start_frame":4,"end_frame":5,"expected":293.7}]}`)

	var out, errOut bytes.Buffer
	if err := run([]string{"-preset", "raga-hz", "-annotations", ann, "analyze", track}, &out, &errOut); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, errOut.String())
	}
	if !strings.Contains(out.String(), "== take.txt vs. truth ==") {
		t.Fatalf("annotation summary missing:\n%s", out.String())
	}
}

func TestRunCompare(t *testing.T) {
	dir := t.TempDir()
	yin := writeTrack(t, dir, "yin.txt", "0\n261.0\n294.0\n")
	cep := writeTrack(t, dir, "cep.txt", "0\n262.5\n0\n")

	var out, errOut bytes.Buffer
	if err := run([]string{"-preset", "raga-hz", "compare", yin, cep}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "yin.txt") || !strings.Contains(out.String(), "1 of 1 shared frames") {
		t.Fatalf("comparison output:\n%s", out.String())
	}
}

func TestRunUsageAndConfigErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := run(nil, &out, &errOut); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Fatalf("no args: err = %v", err)
	}
	if err := run([]string{"analyze"}, &out, &errOut); err == nil {
		t.Fatal("analyze without files should fail")
	}
	if err := run([]string{"-preset", "nope", "analyze", "x.txt"}, &out, &errOut); err == nil {
		t.Fatal("unknown preset should fail")
	}
	if err := run([]string{"-log-level", "loud", "presets"}, &out, &errOut); err == nil {
		t.Fatal("unknown log level should fail")
	}
}

func TestRunRejectsNegativeValidityFloor(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTrack(t, dir, "floor.json", `{"mode":"cents","tolerance":10,"validity_floor":-1}`)
	track := writeTrack(t, dir, "take.txt", "0\n440.0\n")

	var out, errOut bytes.Buffer
	err := run([]string{"-config", cfg, "analyze", track}, &out, &errOut)
	if err == nil || !strings.Contains(err.Error(), "validity floor") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunLogLevel(t *testing.T) {
	dir := t.TempDir()
	track := writeTrack(t, dir, "take.txt", "440.0\n441.0\n")

	var out, errOut bytes.Buffer
	if err := run([]string{"-log-level", "debug", "-preset", "a440-cents", "analyze", track}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(errOut.String(), "Deviation analysis completed") {
		t.Fatalf("debug log missing:\n%s", errOut.String())
	}

	errOut.Reset()
	if err := run([]string{"-log-level", "error", "-preset", "a440-cents", "analyze", track}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	if errOut.Len() != 0 {
		t.Fatalf("expected no log output at error level:\n%s", errOut.String())
	}
}

func TestRunTableSortedByFrequency(t *testing.T) {
	dir := t.TempDir()
	track := writeTrack(t, dir, "take.txt", "392.5\n261.0\n260.0\n")

	var out, errOut bytes.Buffer
	if err := run([]string{"-preset", "raga-hz", "-table", "-sort-freq", "analyze", track}, &out, &errOut); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	if !(strings.Index(s, "260.00") < strings.Index(s, "261.00") && strings.Index(s, "261.00") < strings.Index(s, "392.50")) {
		t.Fatalf("table not sorted by frequency:\n%s", s)
	}
}
