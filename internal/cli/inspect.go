package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/pipeline"
	"github.com/matzehuels/layermap/pkg/resolve"
)

// inspectReport is the --json form of inspect.
type inspectReport struct {
	Path       string                   `json:"path"`
	Codec      string                   `json:"codec"`
	Width      int                      `json:"width"`
	Height     int                      `json:"height"`
	Layers     int                      `json:"layers"`
	Duplicates []string                 `json:"duplicates,omitempty"`
	Contexts   []resolve.MappingContext `json:"containers"`
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		asJSON  bool
		images  bool
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <document>",
		Short: "List a document's containers and how they resolve",
		Long: `Inspect loads a JSON or PSD document, extracts the containers defined in its
template group, and resolves each one against the design groups.`,
		Example: `  layermap inspect design.psd
  layermap inspect template.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			doc, err := runner.Load(cmd.Context(), args[0], pipeline.Options{LoadImages: images})
			if err != nil {
				return err
			}
			report := buildInspectReport(doc)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printInspect(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&images, "images", false, "keep PSD pixel data as layer payloads")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func buildInspectReport(doc *pipeline.Document) inspectReport {
	report := inspectReport{
		Path:       doc.Path,
		Codec:      doc.Codec,
		Width:      doc.Tree.Width,
		Height:     doc.Tree.Height,
		Layers:     layer.Count(doc.Layers),
		Duplicates: doc.Metadata.Duplicates(),
		Contexts:   make([]resolve.MappingContext, 0, len(doc.Metadata.Containers)),
	}
	for _, ct := range doc.Metadata.Containers {
		report.Contexts = append(report.Contexts, resolve.ResolveContainer(ct, doc.Metadata.Canvas, doc.Layers))
	}
	return report
}

func printInspect(w io.Writer, r inspectReport) {
	fmt.Fprintln(w, StyleTitle.Render(filepath.Base(r.Path)))
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %s · %dx%d · %s · %s",
		r.Codec, r.Width, r.Height, plural(r.Layers, "layer"), plural(len(r.Contexts), "container"))))
	if len(r.Contexts) == 0 {
		fmt.Fprintln(w, StyleWarning.Render("  no template group"))
		return
	}
	t := newTable("Container", "Bounds", "Status", "Resolution", "Layers").Rows(contextRows(r.Contexts)...)
	fmt.Fprintln(w, t.Render())
	for _, name := range r.Duplicates {
		fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("%s container %q is defined more than once", iconWarning, name)))
	}
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var images bool

	cmd := &cobra.Command{
		Use:     "resolve <document> <container>",
		Short:   "Resolve one container to its design group",
		Example: `  layermap resolve design.psd '!!HEADER'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(false)
			if err != nil {
				return err
			}
			defer runner.Close()

			doc, err := runner.Load(cmd.Context(), args[0], pipeline.Options{LoadImages: images})
			if err != nil {
				return err
			}
			mc, err := runner.Resolve(doc, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), mc)
		},
	}

	cmd.Flags().BoolVar(&images, "images", false, "keep PSD pixel data as layer payloads")

	return cmd
}
