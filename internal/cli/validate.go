package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ndetsrc/internal/config"
)

// ValidationResult is the JSON payload of the validate command.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Name       string `json:"name"`
	ConfigHash string `json:"config_hash"`
	SourceType string `json:"source_type"`
	Sources    int    `json:"sources"`
	Listing    string `json:"listing"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a run configuration and print the resulting source",
		Long: `Load a run configuration, build the particle source from it and print
the source listing. Nothing is sampled.

Example:
  ndetsrc validate runs/co60.yaml
  ndetsrc validate runs/beam.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid config", err)
	}
	formatter.VerboseLog("Loaded %s", path)

	eng, err := config.Build(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid source", err)
	}

	hash, err := config.Hash(cfg)
	if err != nil {
		return formatter.Fail(ExitCommandError, "invalid config", err)
	}

	listing := eng.Describe()
	text := fmt.Sprintf("run: %s\nseed: %d\nevents: %d\nworkers: %d\n%s",
		cfg.Name, cfg.Seed, cfg.Events, cfg.Workers, listing)
	return formatter.Success(text, ValidationResult{
		Valid:      true,
		Name:       cfg.Name,
		ConfigHash: hash,
		SourceType: eng.SourceType(),
		Sources:    eng.NumSources(),
		Listing:    listing,
	})
}
