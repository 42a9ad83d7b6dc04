package cli

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go-hep.org/x/hep/hbook"
	"gonum.org/v1/gonum/stat"

	"github.com/roach88/ndetsrc/internal/config"
	"github.com/roach88/ndetsrc/internal/engine"
)

// SampleOptions holds flags for the sample command.
type SampleOptions struct {
	*RootOptions
	Events int64
	Bins   int
}

// SampleResult is the JSON payload of the sample command.
type SampleResult struct {
	Name      string            `json:"name"`
	Events    int64             `json:"events"`
	Particles []ParticleSummary `json:"particles"`
}

// ParticleSummary describes the energies emitted for one particle type.
type ParticleSummary struct {
	Particle string     `json:"particle"`
	Count    int64      `json:"count"`
	Mean     float64    `json:"mean_mev"`
	StdDev   float64    `json:"stddev_mev"`
	Min      float64    `json:"min_mev"`
	Max      float64    `json:"max_mev"`
	Bins     []BinCount `json:"bins"`
}

// BinCount is one histogram bin.
type BinCount struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count float64 `json:"count"`
}

// energySink records emitted energies per particle type.
type energySink struct {
	energies map[engine.ParticleType][]float64
}

func (s *energySink) AddPrimaries(_ int64, vertices []engine.PrimaryVertex) error {
	for _, v := range vertices {
		s.energies[v.Particle] = append(s.energies[v.Particle], v.KineticEnergy)
	}
	return nil
}

// NewSampleCommand creates the sample command.
func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SampleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sample <config>",
		Short: "Sample a source and histogram the emitted energies",
		Long: `Build the source described by a run configuration, generate events in
memory and print energy statistics and a histogram per particle type.

Example:
  ndetsrc sample runs/cf252.yaml --events 100000 --bins 40`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSample(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64VarP(&opts.Events, "events", "n", 0, "number of events (default: from config)")
	cmd.Flags().IntVar(&opts.Bins, "bins", 20, "histogram bins per particle")

	return cmd
}

func runSample(opts *SampleOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Bins <= 0 {
		return formatter.Fail(ExitCommandError, "invalid flags", fmt.Errorf("--bins must be positive, got %d", opts.Bins))
	}

	cfg, err := config.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid config", err)
	}
	if opts.Events > 0 {
		cfg.Events = opts.Events
	}

	eng, err := config.Build(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid source", err)
	}

	sink := &energySink{energies: make(map[engine.ParticleType][]float64)}
	for i := int64(0); i < cfg.Events; i++ {
		if _, err := eng.GeneratePrimaries(sink); err != nil {
			return formatter.Fail(ExitFailure, "sampling failed", err)
		}
	}

	result := SampleResult{Name: cfg.Name, Events: cfg.Events}
	particles := make([]engine.ParticleType, 0, len(sink.energies))
	for p := range sink.energies {
		particles = append(particles, p)
	}
	slices.Sort(particles)
	for _, p := range particles {
		result.Particles = append(result.Particles, summarize(p, sink.energies[p], opts.Bins))
	}

	return formatter.Success(renderSample(result), result)
}

func summarize(p engine.ParticleType, es []float64, bins int) ParticleSummary {
	lo, hi := slices.Min(es), slices.Max(es)
	mean, std := stat.MeanStdDev(es, nil)
	if math.IsNaN(std) {
		std = 0
	}

	// A single-valued sample still gets one non-empty bin.
	hlo, hhi := lo, hi
	if hhi <= hlo {
		hlo, hhi = lo-0.5*math.Max(math.Abs(lo)*1e-3, 1e-9), hi+0.5*math.Max(math.Abs(hi)*1e-3, 1e-9)
	} else {
		hhi = math.Nextafter(hhi, math.Inf(1))
	}
	h := hbook.NewH1D(bins, hlo, hhi)
	for _, e := range es {
		h.Fill(e, 1)
	}

	s := ParticleSummary{
		Particle: string(p),
		Count:    h.Entries(),
		Mean:     mean,
		StdDev:   std,
		Min:      lo,
		Max:      hi,
	}
	for _, b := range h.Binning.Bins {
		s.Bins = append(s.Bins, BinCount{Low: b.XMin(), High: b.XMax(), Count: b.SumW()})
	}
	return s
}

func renderSample(r SampleResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d events\n", r.Name, r.Events)
	for _, p := range r.Particles {
		fmt.Fprintf(&b, "\n%s: %d emitted, mean %.6g MeV, std %.6g MeV, range [%.6g, %.6g] MeV\n",
			p.Particle, p.Count, p.Mean, p.StdDev, p.Min, p.Max)
		peak := 0.0
		for _, bin := range p.Bins {
			peak = math.Max(peak, bin.Count)
		}
		for _, bin := range p.Bins {
			bar := 0
			if peak > 0 {
				bar = int(math.Round(40 * bin.Count / peak))
			}
			fmt.Fprintf(&b, "  [%10.6f, %10.6f) %8.0f %s\n", bin.Low, bin.High, bin.Count, strings.Repeat("#", bar))
		}
	}
	return b.String()
}
