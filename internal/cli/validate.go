package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/pipeline"
	"github.com/matzehuels/layermap/pkg/validate"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		strict bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Check that design layers stay inside their containers",
		Long: `Validate reports every direct child of a design group whose bounds escape
the container of the same name. Violations are warnings unless --strict is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(false)
			if err != nil {
				return err
			}
			defer runner.Close()

			doc, err := runner.Load(cmd.Context(), args[0], pipeline.Options{})
			if err != nil {
				return err
			}
			report := validate.Boundaries(doc.Tree, doc.Metadata)

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printReport(filepath.Base(args[0]), report, doc.Metadata.Duplicates())
			}

			if strict && !report.IsValid {
				return errors.New(errors.ErrCodeInvalidDocument, "%s", plural(len(report.Issues), "boundary violation"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit with an error when violations are found")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

func printReport(name string, report validate.Report, duplicates []string) {
	for _, d := range duplicates {
		printWarning("container %q is defined more than once; the last definition is checked", d)
	}
	if report.IsValid {
		printSuccess("%s: all layers inside their containers", name)
		return
	}
	printError("%s: %s", name, plural(len(report.Issues), "boundary violation"))
	for _, is := range report.Issues {
		printDetail("%s in %s: %s", is.LayerName, is.ContainerName, is.Message)
	}
}
