package decay

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	recordWidth = 80
	keV         = 1e-3

	// Gamma final levels must lie within this fraction of the gamma energy,
	// or within targetFloor, of E_level - E_gamma.
	targetTolerance = 0.01
	targetFloor     = 5 * keV
)

// halfLifeUnits converts half-life suffixes to ns. F is femtoseconds.
// PS, NS and US are not accepted.
var halfLifeUnits = map[string]float64{
	"F":  1e-6,
	"MS": 1e6,
	"S":  1e9,
	"M":  60e9,
	"H":  3600e9,
	"Y":  365.25 * 24 * 3600e9,
}

// recordFunc decodes one primary record of the given type.
type recordFunc func(p *parser, rec string) error

// records is the decoded subset of ENSDF record types. Others are skipped.
var records = map[byte]recordFunc{
	' ': (*parser).identification,
	'P': (*parser).parent,
	'N': (*parser).normalization,
	'L': (*parser).level,
	'G': (*parser).gamma,
	'B': (*parser).betaMinus,
	'E': (*parser).electronCapture,
}

type pendingGamma struct {
	g    *Gamma
	from *Level // nil for transitions of the parent state
	cc   float64
	line int
}

type parser struct {
	d         *Decay
	modeSet   bool
	branching float64
	haveID    bool

	lvl     *Level
	pending []*pendingGamma
	last    *pendingGamma
	line    int
}

// ReadFile loads a decay scheme from an ENSDF decay dataset.
//
// Only the half-life units F, MS, S, M, H and Y (and STABLE) are accepted.
// Many published datasets give short level lifetimes in PS, NS or US; such
// files fail with ErrParse and must be converted to F or MS first, for
// example "0.713 PS" to "713 F".
func ReadFile(path string) (*Decay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse reads the first dataset of an ENSDF file. Energies are keV on disk.
// Decoding stops at the blank record that ends the dataset. Half-life
// units are restricted as described on ReadFile.
func Parse(r io.Reader) (*Decay, error) {
	p := &parser{d: &Decay{}, branching: 1}

	sc := bufio.NewScanner(r)
	started := false
	for sc.Scan() {
		p.line++
		rec := sc.Text()
		if strings.TrimSpace(rec) == "" {
			if started {
				break
			}
			continue
		}
		started = true
		if len(rec) < recordWidth {
			rec += strings.Repeat(" ", recordWidth-len(rec))
		}
		if err := p.record(rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrParse, p.line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p.finish()
}

func (p *parser) record(rec string) error {
	switch rec[6] {
	case 'C', 'c', 'D', 'd', 'T', 't':
		return nil
	}
	typ := rec[7]
	if cont := rec[5]; cont != ' ' && cont != '1' {
		if typ == 'G' && p.last != nil {
			return p.conversion(rec)
		}
		return nil
	}
	fn, ok := records[typ]
	if !ok {
		slog.Debug("skipping ENSDF record", "line", p.line, "type", string(typ))
		return nil
	}
	return fn(p, rec)
}

func (p *parser) identification(rec string) error {
	if p.haveID {
		return nil
	}
	p.haveID = true
	z, err := nucidZ(rec)
	if err != nil {
		return err
	}
	p.d.DaughterZ = z

	dsid := strings.ToUpper(field(rec, 10, 39))
	switch {
	case strings.Contains(dsid, "B- DECAY"):
		p.setMode(BetaMinus)
	case strings.Contains(dsid, "EC DECAY"), strings.Contains(dsid, "B+ DECAY"):
		p.setMode(ElectronCapture)
	case strings.Contains(dsid, "IT DECAY"):
		p.setMode(Isomeric)
	default:
		return fmt.Errorf("unsupported dataset %q", dsid)
	}
	return nil
}

func (p *parser) setMode(m Mode) {
	if !p.modeSet {
		p.d.Mode = m
		p.modeSet = true
	}
}

func (p *parser) parent(rec string) error {
	if p.d.Parent != nil {
		return fmt.Errorf("second parent record")
	}
	z, err := nucidZ(rec)
	if err != nil {
		return err
	}
	e, err := energyField(rec, 10, 19)
	if err != nil {
		return err
	}
	t, err := parseHalfLife(field(rec, 40, 49))
	if err != nil {
		return err
	}
	q, err := energyField(rec, 65, 74)
	if err != nil {
		return err
	}
	p.d.Parent = &Level{Energy: e, HalfLife: t}
	p.d.ParentZ = z
	p.d.Nuclide = strings.TrimSpace(rec[:5])
	p.d.Q = q
	return nil
}

func (p *parser) normalization(rec string) error {
	s := field(rec, 32, 39)
	if s == "" {
		return nil
	}
	br, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("branching ratio %q: %v", s, err)
	}
	if br < 0 || br > 1 {
		return fmt.Errorf("branching ratio %g outside [0, 1]", br)
	}
	p.branching = br
	return nil
}

func (p *parser) level(rec string) error {
	e, err := energyField(rec, 10, 19)
	if err != nil {
		return err
	}
	t, err := parseHalfLife(field(rec, 40, 49))
	if err != nil {
		return err
	}
	if !p.haveID && p.d.DaughterZ == 0 {
		if p.d.DaughterZ, err = nucidZ(rec); err != nil {
			return err
		}
	}
	p.lvl = &Level{Energy: e, HalfLife: t}
	p.d.Levels = append(p.d.Levels, p.lvl)
	p.last = nil
	return nil
}

func (p *parser) gamma(rec string) error {
	if p.lvl == nil && p.d.Parent == nil {
		return fmt.Errorf("gamma before any level")
	}
	e, err := energyField(rec, 10, 19)
	if err != nil {
		return err
	}
	ri, err := floatField(rec, 22, 29)
	if err != nil {
		return err
	}
	cc, err := floatField(rec, 56, 62)
	if err != nil {
		return err
	}
	p.last = &pendingGamma{g: &Gamma{Energy: e, Intensity: ri}, from: p.lvl, cc: cc, line: p.line}
	p.pending = append(p.pending, p.last)
	return nil
}

// conversion decodes "KEY=VALUE" pairs separated by '$' on a gamma
// continuation record.
func (p *parser) conversion(rec string) error {
	c := &p.last.g.Conversion
	for _, item := range strings.Split(rec[9:], "$") {
		key, value, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok {
			continue
		}
		var dst *float64
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "KC":
			dst = &c.K
		case "LC":
			dst = &c.L
		case "MC", "MC+":
			dst = &c.M
		case "NC", "NC+":
			dst = &c.Outer
		case "IPC":
			dst = &c.Pair
		case "CC":
			dst = &p.last.cc
		default:
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty value for %s", key)
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("%s: %v", key, err)
		}
		*dst = v
	}
	return nil
}

func (p *parser) betaMinus(rec string) error {
	if p.lvl == nil {
		return fmt.Errorf("beta record before any level")
	}
	p.setMode(BetaMinus)
	e, err := energyField(rec, 10, 19)
	if err != nil {
		return err
	}
	ib, err := floatField(rec, 22, 29)
	if err != nil {
		return err
	}
	p.lvl.MaxBetaEnergy = e
	p.lvl.BetaFeeding = ib
	return nil
}

func (p *parser) electronCapture(rec string) error {
	if p.lvl == nil {
		return fmt.Errorf("EC record before any level")
	}
	p.setMode(ElectronCapture)
	e, err := energyField(rec, 10, 19)
	if err != nil {
		return err
	}
	ib, err := floatField(rec, 22, 29)
	if err != nil {
		return err
	}
	ie, err := floatField(rec, 32, 39)
	if err != nil {
		return err
	}
	p.lvl.MaxBetaEnergy = e
	p.lvl.BetaFeeding = ib + ie
	if ib+ie > 0 {
		p.lvl.PositronFraction = ib / (ib + ie)
	}
	return nil
}

func (p *parser) finish() (*Decay, error) {
	d := p.d
	if d.Parent == nil {
		return nil, fmt.Errorf("%w: no parent record", ErrParse)
	}
	if !p.modeSet {
		return nil, fmt.Errorf("%w: cannot determine decay mode", ErrParse)
	}
	d.Parent.BetaDecayProbability = p.branching

	for _, pg := range p.pending {
		g := pg.g
		if g.Conversion.Total() == 0 && pg.cc > 0 {
			g.Conversion.K = pg.cc
		}
		if g.TotalProbability() <= 0 {
			slog.Debug("dropping transition without intensity", "line", pg.line, "energy_mev", g.Energy)
			continue
		}

		from := pg.from
		if from == nil {
			from = d.Parent
		}
		if pg.from != nil || d.Mode == Isomeric {
			target, err := p.findTarget(from.Energy-g.Energy, from.Energy, g.Energy)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrParse, pg.line, err)
			}
			g.Target = target
		}
		from.Gammas = append(from.Gammas, g)
	}

	if d.Mode == Isomeric && len(d.Parent.Gammas) == 0 {
		if l := nearest(d.Levels, d.Parent.Energy, math.Inf(1)); l != nil && math.Abs(l.Energy-d.Parent.Energy) <= targetFloor {
			d.Parent.Gammas = l.Gammas
		}
	}
	return New(d)
}

// findTarget returns the level nearest to energy e below energy above.
func (p *parser) findTarget(e, above, eg float64) (*Level, error) {
	tol := math.Max(targetTolerance*eg, targetFloor)
	l := nearest(p.d.Levels, e, above)
	if l == nil || math.Abs(l.Energy-e) > tol {
		return nil, fmt.Errorf("no final level near %.6g MeV for %.6g MeV gamma", e, eg)
	}
	return l, nil
}

// nearest returns the level closest to e among those strictly below limit.
func nearest(levels []*Level, e, limit float64) *Level {
	var best *Level
	for _, l := range levels {
		if l.Energy >= limit {
			continue
		}
		if best == nil || math.Abs(l.Energy-e) < math.Abs(best.Energy-e) {
			best = l
		}
	}
	return best
}

// parseHalfLife converts an ENSDF half-life field to ns. Blank means prompt.
func parseHalfLife(s string) (float64, error) {
	fields := strings.Fields(strings.ToUpper(s))
	switch {
	case len(fields) == 0:
		return 0, nil
	case len(fields) == 1 && fields[0] == "STABLE":
		return math.Inf(1), nil
	case len(fields) != 2:
		return 0, fmt.Errorf("half-life %q", s)
	}
	unit, ok := halfLifeUnits[fields[1]]
	if !ok {
		return 0, fmt.Errorf("half-life %q: unknown unit %q", s, fields[1])
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("half-life %q: bad value", s)
	}
	return v * unit, nil
}

// nucidZ decodes the element symbol in columns 4-5.
func nucidZ(rec string) (int, error) {
	sym := strings.TrimSpace(rec[3:5])
	z, ok := atomicNumber(sym)
	if !ok {
		return 0, fmt.Errorf("unknown element %q in NUCID %q", sym, rec[:5])
	}
	return z, nil
}

// field returns columns from..to (1-based, inclusive) trimmed.
func field(rec string, from, to int) string {
	if from > len(rec) {
		return ""
	}
	if to > len(rec) {
		to = len(rec)
	}
	return strings.TrimSpace(rec[from-1 : to])
}

func floatField(rec string, from, to int) (float64, error) {
	s := field(rec, from, to)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("columns %d-%d: %q is not a number", from, to, s)
	}
	return v, nil
}

// energyField reads a keV field and returns MeV.
func energyField(rec string, from, to int) (float64, error) {
	v, err := floatField(rec, from, to)
	return v * keV, err
}
