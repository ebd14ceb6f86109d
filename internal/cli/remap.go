package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/pipeline"
)

// remapCommand creates the remap command.
func (c *CLI) remapCommand() *cobra.Command {
	var (
		flags       remapFlags
		output      string
		payloads    string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "remap <source> <target>",
		Short: "Move container contents from a source document into a target layout",
		Long: `Remap resolves each SOURCE container of the source document to its design
group, scales and positions the group's layers into the TARGET container of
the target document, and writes a document shaped like the target.

Mappings that cannot be resolved are reported and skipped; the remaining
mappings are still written.`,
		Example: `  layermap remap design.psd template.json -m '!!HEADER=!!BANNER'
  layermap remap design.json template.json -m HEADER=BANNER -s strategy.json -o out.json
  layermap remap design.psd template.json --interactive`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutput(args[1])
			}

			runner, err := c.newRunner(flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			result, err := c.remap(cmd.Context(), runner, args[0], args[1], opts, interactive)
			if err != nil {
				return err
			}
			return writeResult(result, output, payloads)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output document (default <target>.remapped.json)")
	cmd.Flags().StringVar(&payloads, "payloads", "", "also write the transformed payloads as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pick container pairs interactively")

	return cmd
}

// remap loads both documents and runs the pipeline. Without mappings and
// with interactive set, the container picker supplies them.
func (c *CLI) remap(ctx context.Context, runner *pipeline.Runner, srcPath, tgtPath string, opts pipeline.Options, interactive bool) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	spinner := newSpinner(ctx, "Loading "+srcPath)
	spinner.Start()
	src, srcHit, err := runner.LoadWithCacheInfo(ctx, srcPath, opts)
	if err != nil {
		spinner.Stop()
		return nil, fmt.Errorf("load source: %w", err)
	}
	spinner.Update("Loading " + tgtPath)
	tgt, tgtHit, err := runner.LoadWithCacheInfo(ctx, tgtPath, opts)
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("load target: %w", err)
	}
	loadTime := prog.elapsed()

	if len(opts.Mappings) == 0 && interactive {
		mappings, err := pickMappings(src.Metadata.Names(), tgt.Metadata.Names())
		if err != nil {
			return nil, err
		}
		if len(mappings) == 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "no mappings selected")
		}
		opts.Mappings = mappings
	}

	result, err := runner.Run(ctx, src, tgt, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	result.CacheInfo.SourceHit = srcHit
	result.CacheInfo.TargetHit = tgtHit

	prog.done("remap finished", "payloads", len(result.Payloads), "failed", len(result.Failures))
	printResult(result)
	return result, nil
}

// printResult summarizes payloads and failures.
func printResult(result *pipeline.Result) {
	for _, p := range result.Payloads {
		printSuccess("%s %s %s  %s", p.SourceContainer, iconArrow, p.TargetContainer,
			StyleDim.Render(fmt.Sprintf("×%.3g · %s", p.ScaleFactor, p.Status)))
	}
	for _, f := range result.Failures {
		printError("%s: %s", f.Mapping, f.Message)
	}
	if result.Reconstruct.Stale > 0 {
		printWarning("%s computed against an older version of the source document", plural(result.Reconstruct.Stale, "payload"))
	}
	fmt.Println(statsLine(result.Stats.Mappings, result.Stats.Layers, result.CacheInfo.RemapHits))
}

// writeResult writes the reconstructed document and, optionally, the
// payloads. A run where every mapping failed writes nothing.
func writeResult(result *pipeline.Result, output, payloads string) error {
	if len(result.Payloads) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no mapping could be remapped")
	}
	if err := document.WriteFile(result.Tree, output, document.JSONCodec{}); err != nil {
		return err
	}
	printFile(output)

	if payloads != "" {
		f, err := os.Create(payloads)
		if err != nil {
			return fmt.Errorf("create %s: %w", payloads, err)
		}
		defer f.Close()
		if err := writeJSON(f, result.Payloads); err != nil {
			return fmt.Errorf("write %s: %w", payloads, err)
		}
		printFile(payloads)
	}
	return nil
}
