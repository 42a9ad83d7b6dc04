package dist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrParse marks malformed energy-distribution files.
var ErrParse = errors.New("parse error")

// ReadFile loads an energy-distribution file of "energy weight" pairs.
func ReadFile(path string) (*Tabulated, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads whitespace-separated "energy(MeV) weight" pairs, one per line,
// until EOF. Blank lines and lines starting with '#' are skipped. Energies
// must increase strictly and weights must be non-negative.
func Parse(r io.Reader) (*Tabulated, error) {
	t := NewTabulated()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want 2 columns, got %d", ErrParse, line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: energy: %v", ErrParse, line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: weight: %v", ErrParse, line, err)
		}
		if y < 0 {
			return nil, fmt.Errorf("%w: line %d: negative weight %g", ErrParse, line, y)
		}
		if n := t.Len(); n > 0 && x <= t.xs[n-1] {
			return nil, fmt.Errorf("%w: line %d: energy %g not above %g", ErrParse, line, x, t.xs[n-1])
		}
		t.AddPoint(x, y)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if t.Len() < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrParse, t.Len())
	}
	return t, nil
}
