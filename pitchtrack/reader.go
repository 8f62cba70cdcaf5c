package pitchtrack

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadText parses a plain-text pitch track. Each non-blank line holds either a
// frequency or a "time frequency" pair, separated by whitespace or a comma.
// Lines starting with '#' are comments; a first line with no numeric fields
// is taken as a column header.
func ReadText(r io.Reader, name string) (*Track, error) {
	t := &Track{Name: name}

	columns := 0
	lineNo := 0
	sawData := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})

		values, err := parseFields(fields)
		if err != nil {
			if !sawData && isHeader(fields) {
				continue
			}
			return nil, fmt.Errorf("%s line %d: %w", name, lineNo, err)
		}
		sawData = true

		if columns == 0 {
			columns = len(values)
			if columns > 2 {
				return nil, fmt.Errorf("%s line %d: expected 1 or 2 columns, got %d", name, lineNo, columns)
			}
		} else if len(values) != columns {
			return nil, fmt.Errorf("%s line %d: expected %d columns, got %d", name, lineNo, columns, len(values))
		}

		if columns == 2 {
			t.Times = append(t.Times, values[0])
			t.Frequencies = append(t.Frequencies, values[1])
		} else {
			t.Frequencies = append(t.Frequencies, values[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	return t, nil
}

// ReadJSON decodes a Track object
func ReadJSON(r io.Reader, name string) (*Track, error) {
	var t Track
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if t.Name == "" {
		t.Name = name
	}
	return &t, nil
}

// Load reads a track file, choosing the format by extension (.json or text).
// sampleRate and hopSize fill in values the file does not carry.
func Load(path string, sampleRate, hopSize int) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)

	var t *Track
	if strings.EqualFold(filepath.Ext(path), ".json") {
		t, err = ReadJSON(f, name)
	} else {
		t, err = ReadText(f, name)
	}
	if err != nil {
		return nil, err
	}

	if t.SampleRate == 0 {
		t.SampleRate = sampleRate
	}
	if t.HopSize == 0 {
		t.HopSize = hopSize
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseFields(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", s)
		}
		values[i] = v
	}
	return values, nil
}

func isHeader(fields []string) bool {
	for _, s := range fields {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return false
		}
	}
	return true
}
