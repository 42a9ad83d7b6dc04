package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIn(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const yamlRun = `
name: cobalt
seed: 42
events: 500
workers: 4
source:
  type: "⁶⁰CO"
  energy_file: spectra/flat.txt
  position: [0, 0, -10]
  direction: [0, 0, 90]
  beamspot:
    shape: Circle
    radius: 5
  isotropic: 2
`

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeIn(t, dir, "run.yaml", yamlRun)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cobalt", cfg.Name)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, int64(500), cfg.Events)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "60co", cfg.Source.Type)
	assert.Equal(t, "circle", cfg.Source.Beamspot.Shape)
	assert.Equal(t, filepath.Join(dir, "spectra", "flat.txt"), cfg.Source.EnergyFile)
	assert.Equal(t, []float64{0, 0, -10}, cfg.Source.Position)
	assert.Equal(t, 2, cfg.Source.Isotropic)
}

func TestLoad_YAMLDefaults(t *testing.T) {
	path := writeIn(t, t.TempDir(), "minimal.yml", "source:\n  type: neutron\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", cfg.Name)
	assert.Equal(t, int64(DefaultSeed), cfg.Seed)
	assert.Equal(t, int64(DefaultEvents), cfg.Events)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, "point", cfg.Source.Beamspot.Shape)
	assert.Nil(t, cfg.Source.Energy)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML([]byte("source:\n  typ: neutron\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "typ")
}

const cueRun = `
name: "sodium"
events: 20
source: {
	type: "22Na"
	isotropic: 2
	back_to_back_energy: 1.2
}
detector: {
	center: [100, 0, 0]
	size: [3, 6, 60]
}
`

func TestLoad_CUE(t *testing.T) {
	path := writeIn(t, t.TempDir(), "run.cue", cueRun)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sodium", cfg.Name)
	assert.Equal(t, int64(1), cfg.Seed, "schema default")
	assert.Equal(t, int64(20), cfg.Events)
	assert.Equal(t, 1, cfg.Workers, "schema default")
	assert.Equal(t, "22na", cfg.Source.Type)
	assert.Equal(t, 1.2, cfg.Source.BackToBackEnergy)
	require.NotNil(t, cfg.Detector)
	assert.Equal(t, []float64{3, 6, 60}, cfg.Detector.Size)
}

func TestParseCUE_SchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", `source: {typ: "neutron"}`},
		{"negative energy", `source: {type: "gamma", energy: -1}`},
		{"bad isotropic", `source: {isotropic: 3}`},
		{"bad vector", `source: {position: [1, 2]}`},
		{"bad interpolation", `source: {interpolation: "quadratic"}`},
		{"zero events", `events: 0, source: {}`},
		{"syntax", `source: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE([]byte(tt.input), "bad.cue")
			assert.Error(t, err)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeIn(t, t.TempDir(), "run.toml", "x = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(writeIn(t, t.TempDir(), "run.yaml", "source:\n  isotropic: 1\n"))
	assert.ErrorContains(t, err, "needs a detector")
}

func TestValidate(t *testing.T) {
	neg := -2.0
	tests := []struct {
		name string
		mod  func(c *RunConfig)
		want string
	}{
		{"events", func(c *RunConfig) { c.Events = -1 }, "events"},
		{"workers", func(c *RunConfig) { c.Workers = -1 }, "workers"},
		{"energy", func(c *RunConfig) { c.Source.Energy = &neg }, "source.energy"},
		{"isotropic", func(c *RunConfig) { c.Source.Isotropic = 5 }, "isotropic"},
		{"position", func(c *RunConfig) { c.Source.Position = []float64{1} }, "source.position"},
		{"range order", func(c *RunConfig) { c.Source.EnergyRange = []float64{2, 1} }, "increasing"},
		{"detector size", func(c *RunConfig) {
			c.Detector = &DetectorConfig{Center: []float64{0, 0, 0}, Size: []float64{1, 0, 1}}
		}, "detector.size"},
		{"back-to-back", func(c *RunConfig) { c.Source.BackToBackEnergy = -1 }, "back_to_back"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &RunConfig{}
			c.Normalize("x")
			require.NoError(t, c.Validate())
			tt.mod(c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestHash_StableAcrossSpellings(t *testing.T) {
	a, err := ParseYAML([]byte("source:\n  type: 60Co\n  beamspot: {shape: CIRCLE}\n"))
	require.NoError(t, err)
	b, err := ParseYAML([]byte("source:\n  type: \" ⁶⁰co \"\n  beamspot: {shape: circle}\n"))
	require.NoError(t, err)
	a.Normalize("run")
	b.Normalize("run")

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
	assert.Len(t, ha, 64)

	b.Seed = 99
	hc, err := Hash(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}
