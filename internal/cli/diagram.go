package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermap/pkg/pipeline"
	"github.com/matzehuels/layermap/pkg/render/diagram"
)

// diagramCommand creates the diagram command.
func (c *CLI) diagramCommand() *cobra.Command {
	var (
		flags    remapFlags
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "diagram <source> <target>",
		Short: "Draw how source containers map into target containers",
		Long: `Diagram runs the mappings without writing a document and draws a graph of
source containers, target containers and the scale applied to each pair.
The output format follows the file extension: .dot, .svg, .pdf or .png.`,
		Example: `  layermap diagram design.psd template.json -m '!!HEADER=!!BANNER' -o map.svg
  layermap diagram design.psd template.json -m HEADER=BANNER -o map.png --detailed`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := diagramFormat(output)
			opts, err := flags.options()
			if err != nil {
				return err
			}

			runner, err := c.newRunner(flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			result, err := runner.Execute(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}

			dot := diagram.ToDOT(result.Payloads, failedMappings(result), diagram.Options{Detailed: detailed})
			data, err := diagram.Render(dot, format)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Diagram of %s", plural(len(result.Payloads)+len(result.Failures), "mapping"))
			printFile(output)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "mapping.svg", "output file (.dot, .svg, .pdf, .png)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "list remapped layers under each target container")

	return cmd
}

// diagramFormat returns the render format implied by the output extension.
// Unknown extensions fall through to diagram.Render, which rejects them.
func diagramFormat(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func failedMappings(result *pipeline.Result) []diagram.Failed {
	out := make([]diagram.Failed, len(result.Failures))
	for i, f := range result.Failures {
		out[i] = diagram.Failed{Source: f.Mapping.Source, Target: f.Mapping.Target, Reason: string(f.Code)}
	}
	return out
}
