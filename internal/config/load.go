package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads a run configuration. The format follows the extension: .yaml
// and .yml are strict YAML, .cue is CUE checked against the #Run schema.
// Relative file paths resolve against the config's directory, names are
// normalised and defaults filled before validation.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg *RunConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = ParseYAML(data)
	case ".cue":
		cfg, err = ParseCUE(data, filepath.Base(path))
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .cue)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Base(path)
	cfg.Normalize(strings.TrimSuffix(base, filepath.Ext(base)))
	cfg.ResolvePaths(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", path, err)
	}
	return cfg, nil
}

// ParseYAML decodes a YAML run configuration, rejecting unknown fields.
func ParseYAML(data []byte) (*RunConfig, error) {
	var cfg RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// ParseCUE compiles a CUE run configuration, unifies it with #Run and
// decodes the concrete result. Schema defaults apply.
func ParseCUE(data []byte, filename string) (*RunConfig, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compiling CUE: %w", err)
	}

	run := schema.LookupPath(cue.ParsePath("#Run")).Unify(value)
	if err := run.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating CUE: %w", err)
	}

	var cfg RunConfig
	if err := run.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding CUE: %w", err)
	}
	return &cfg, nil
}
