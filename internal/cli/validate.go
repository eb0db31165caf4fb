package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/svg2png/pkg/convert"
	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/pipeline"
	"github.com/matzehuels/svg2png/pkg/records"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every record without rendering",
		Long: `Validate decodes every record of the input file and runs the SVG checks
(starts with <svg, mentions xmlns, width and height) without rendering or
writing anything. It exits non-zero when any record is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("input") {
				input = c.Config.Input
			}
			return runValidate(cmd, input)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input JSON file (default from config, Json.txt)")
	return cmd
}

func runValidate(cmd *cobra.Command, input string) error {
	logger := loggerFromContext(cmd.Context())

	set, err := records.Load(input)
	if err != nil {
		return err
	}

	failures := checkRecords(set)
	logger.Debug("validated records", "file", input, "count", set.Len(), "invalid", len(failures))

	if len(failures) == 0 {
		printSuccess("All %d records are valid", set.Len())
		return nil
	}

	printFailures(failures)
	return errors.New(errors.ErrCodeInvalidSVG, "%d of %d records are invalid", len(failures), set.Len())
}

// checkRecords runs the decode and SVG checks over every record.
func checkRecords(set *records.Set) []pipeline.Failure {
	var failures []pipeline.Failure
	for _, rec := range set.Records() {
		if err := convert.Check(rec.Payload); err != nil {
			failures = append(failures, pipeline.Failure{
				Key:     rec.Key,
				Code:    errors.CodeOf(err),
				Message: errors.UserMessage(err),
			})
		}
	}
	return failures
}
