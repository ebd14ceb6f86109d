package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/pipeline"
)

// Job is a remap run described in a TOML file:
//
//	source   = "design.psd"
//	target   = "template.json"
//	output   = "out.json"
//	strategy = "strategy.json"
//
//	[[mapping]]
//	source = "!!HEADER"
//	target = "!!BANNER"
//
// Relative paths are resolved against the job file's directory.
type Job struct {
	Source      string             `toml:"source"`
	Target      string             `toml:"target"`
	Output      string             `toml:"output"`
	Payloads    string             `toml:"payloads"`
	Strategy    string             `toml:"strategy"`
	StrategyURL string             `toml:"strategy_url"`
	Images      bool               `toml:"images"`
	Concurrency int                `toml:"concurrency"`
	Mappings    []pipeline.Mapping `toml:"mapping"`
}

// LoadJob reads and validates a job file.
func LoadJob(path string) (*Job, error) {
	var job Job
	md, err := toml.DecodeFile(path, &job)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse job %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "job %s: unknown key %q", path, undecoded[0].String())
	}
	job.resolvePaths(filepath.Dir(path))
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks required fields.
func (j *Job) Validate() error {
	if j.Source == "" || j.Target == "" {
		return errors.New(errors.ErrCodeInvalidInput, "job needs both source and target")
	}
	if len(j.Mappings) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "job defines no [[mapping]]")
	}
	for _, m := range j.Mappings {
		if _, _, err := errors.ValidateMapping(m.String()); err != nil {
			return err
		}
	}
	return nil
}

// Options converts the job into pipeline options.
func (j *Job) Options() (pipeline.Options, error) {
	opts := pipeline.Options{
		Mappings:    j.Mappings,
		Concurrency: j.Concurrency,
		LoadImages:  j.Images,
	}
	if err := applyStrategy(&opts, j.Strategy, j.StrategyURL); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

func (j *Job) resolvePaths(dir string) {
	for _, p := range []*string{&j.Source, &j.Target, &j.Output, &j.Payloads, &j.Strategy} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	if j.Output == "" && j.Target != "" {
		j.Output = defaultOutput(j.Target)
	}
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "run <job.toml>",
		Short: "Run a remap described in a TOML job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := LoadJob(args[0])
			if err != nil {
				return err
			}
			opts, err := job.Options()
			if err != nil {
				return err
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			result, err := c.remap(cmd.Context(), runner, job.Source, job.Target, opts, false)
			if err != nil {
				return err
			}
			return writeResult(result, job.Output, job.Payloads)
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
