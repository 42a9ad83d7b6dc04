package reaction

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// directive is one reaction-file keyword with its declared arity.
type directive struct {
	arity    int
	required bool
	apply    func(p *Parameters, args []float64)
}

// directives is the reaction-file vocabulary. Masses are in amu.
var directives = map[string]directive{
	"beam":      {1, true, func(p *Parameters, a []float64) { p.BeamMass = a[0] * AMU }},
	"target":    {1, true, func(p *Parameters, a []float64) { p.TargetMass = a[0] * AMU }},
	"ejectile":  {1, true, func(p *Parameters, a []float64) { p.EjectileMass = a[0] * AMU }},
	"recoil":    {1, false, func(p *Parameters, a []float64) { p.RecoilMass = a[0] * AMU }},
	"qvalue":    {1, true, func(p *Parameters, a []float64) { p.QValue = a[0] }},
	"ebeam":     {1, true, func(p *Parameters, a []float64) { p.BeamEnergy = a[0] }},
	"thickness": {1, false, func(p *Parameters, a []float64) { p.Thickness = a[0] }},
	"dedx":      {1, false, func(p *Parameters, a []float64) { p.EnergyLoss = a[0] }},
}

// Read loads and validates a reaction file.
func Read(path string) (*Reaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r, err := New(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrParse, err)
	}
	return r, nil
}

// Parse reads "key value" lines. Keys are case-insensitive, '#' starts a
// comment, and every key may appear at most once.
func Parse(r io.Reader) (Parameters, error) {
	var p Parameters
	seen := make(map[string]bool, len(directives))

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		key := strings.ToLower(fields[0])
		d, ok := directives[key]
		if !ok {
			return Parameters{}, fmt.Errorf("%w: line %d: unknown key %q", ErrParse, line, fields[0])
		}
		if seen[key] {
			return Parameters{}, fmt.Errorf("%w: line %d: duplicate key %q", ErrParse, line, key)
		}
		if len(fields)-1 != d.arity {
			return Parameters{}, fmt.Errorf("%w: line %d: %s takes %d value(s), got %d", ErrParse, line, key, d.arity, len(fields)-1)
		}
		args := make([]float64, d.arity)
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Parameters{}, fmt.Errorf("%w: line %d: %s: %v", ErrParse, line, key, err)
			}
			args[i] = v
		}
		d.apply(&p, args)
		seen[key] = true
	}
	if err := sc.Err(); err != nil {
		return Parameters{}, err
	}

	var missing []string
	for key, d := range directives {
		if d.required && !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Parameters{}, fmt.Errorf("%w: missing %s", ErrParse, strings.Join(missing, ", "))
	}
	return p, nil
}
