package decay

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/ndetsrc/internal/dist"
)

const (
	// ElectronMass in MeV/c².
	ElectronMass = 0.51099895

	fineStructure = 1 / 137.035999084

	// reducedCompton is ħ/(m_e c) in fm.
	reducedCompton = 386.15926796

	// fermiPoints is the number of kinetic-energy points in a beta spectrum.
	fermiPoints = 500
)

// Fermi samples allowed beta spectra with the relativistic Fermi function
// Coulomb correction.
type Fermi struct {
	Z      int     // daughter atomic number
	Q      float64 // endpoint kinetic energy
	Charge int     // -1 for beta-, +1 for beta+

	table *dist.Tabulated
}

// NewFermi tabulates N(W) = F(Z,W)·p·W·(W0-W)² over kinetic energies in
// [0, q].
func NewFermi(z int, q float64, charge int) (*Fermi, error) {
	if z < 0 {
		return nil, fmt.Errorf("invalid atomic number %d", z)
	}
	if !(q > 0) {
		return nil, fmt.Errorf("invalid endpoint energy %g MeV", q)
	}
	if charge != -1 && charge != 1 {
		return nil, fmt.Errorf("invalid beta charge %d", charge)
	}

	f := &Fermi{Z: z, Q: q, Charge: charge, table: dist.NewTabulated()}
	ts := make([]float64, fermiPoints)
	floats.Span(ts, 0, q)
	for _, t := range ts {
		f.table.AddPoint(t, f.Density(t))
	}
	// Build the CDF now so Sample only reads.
	if _, err := f.table.Integral(); err != nil {
		return nil, fmt.Errorf("beta spectrum Z=%d Q=%g: %w", z, q, err)
	}
	return f, nil
}

// Sample returns one beta kinetic energy.
func (f *Fermi) Sample(rng *rand.Rand) (float64, error) {
	return f.table.Sample(rng)
}

// Mean returns the mean kinetic energy of the tabulated spectrum.
func (f *Fermi) Mean() (float64, error) {
	return f.table.Mean()
}

// Density returns the unnormalised spectrum at kinetic energy t. It is zero
// at the endpoint and, for positrons, at t = 0.
func (f *Fermi) Density(t float64) float64 {
	if t >= f.Q || t < 0 {
		return 0
	}
	if t == 0 {
		if f.Charge > 0 || f.Z == 0 {
			return 0
		}
		// The electron spectrum has a finite limit at rest; approach it.
		t = f.Q * 1e-4
	}
	w := t/ElectronMass + 1
	w0 := f.Q/ElectronMass + 1
	p := math.Sqrt(w*w - 1)
	return FermiFunction(f.Z, w, f.Charge) * p * w * (w0 - w) * (w0 - w)
}

// FermiFunction returns F(Z, W) for total electron energy w in units of
// m_e c². Z is the daughter atomic number.
func FermiFunction(z int, w float64, charge int) float64 {
	if z == 0 {
		return 1
	}
	p := math.Sqrt(w*w - 1)
	az := fineStructure * float64(z)
	g0 := math.Sqrt(1 - az*az)
	eta := az * w / p
	if charge > 0 {
		eta = -eta
	}
	r := nuclearRadius(z) / reducedCompton

	// |Γ(γ0+iη)|² e^{πη} in log space; either factor alone overflows near p = 0.
	lg := 2*real(lnGamma(complex(g0, eta))) + math.Pi*eta
	den, _ := math.Lgamma(2*g0 + 1)
	return 2 * (1 + g0) * math.Pow(2*p*r, 2*(g0-1)) * math.Exp(lg-2*den)
}

// nuclearRadius returns 1.2·A^{1/3} fm with A taken from the beta-stability
// line for the given Z.
func nuclearRadius(z int) float64 {
	fz := float64(z)
	a := 2 * fz
	for i := 0; i < 10; i++ {
		a = fz * (1.98 + 0.0155*math.Pow(a, 2.0/3))
	}
	return 1.2 * math.Cbrt(a)
}

var lanczos = [...]float64{
	0.99999999999980993,
	676.5203681218851,
	-1259.1392167224028,
	771.32342877765313,
	-176.61502916214059,
	12.507343278686905,
	-0.13857109526572012,
	9.9843695780195716e-6,
	1.5056327351493116e-7,
}

// lnGamma is the principal log-gamma of a complex argument (Lanczos, g = 7).
func lnGamma(z complex128) complex128 {
	if real(z) < 0.5 {
		// Reflection: Γ(z)Γ(1-z) = π / sin(πz).
		return complex(math.Log(math.Pi), 0) - cmplx.Log(cmplx.Sin(complex(math.Pi, 0)*z)) - lnGamma(1-z)
	}
	z--
	x := complex(lanczos[0], 0)
	for i := 1; i < len(lanczos); i++ {
		x += complex(lanczos[i], 0) / (z + complex(float64(i), 0))
	}
	t := z + complex(float64(len(lanczos))-1.5, 0)
	return complex(0.5*math.Log(2*math.Pi), 0) + (z+0.5)*cmplx.Log(t) - t + cmplx.Log(x)
}
