package cmd

import (
	"encoding/json"
	"fmt"

	"vigil/core"
	"vigil/ingest"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var (
		eventsFile string
		logType    string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an events file against a log-type schema",
		Long: `Checks every event in the file against the named log-type schema and
reports validation errors. Unknown log types validate as always-valid;
schemas are a pre-filter, not a gate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := ingest.LoadEventsFile(eventsFile)
			if err != nil {
				return err
			}

			schemas := core.BuiltinSchemas()
			out := cmd.OutOrStdout()

			type report struct {
				Event  int      `json:"event"`
				Errors []string `json:"errors"`
			}
			var reports []report
			for i, event := range events {
				if errs := schemas.Validate(logType, event); len(errs) > 0 {
					reports = append(reports, report{Event: i, Errors: errs})
				}
			}

			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reports)
			}

			if len(reports) == 0 {
				successColor.Fprintf(out, "%d events valid against %s\n", len(events), logType)
				return nil
			}
			for _, r := range reports {
				errorColor.Fprintf(out, "event %d:\n", r.Event)
				for _, msg := range r.Errors {
					fmt.Fprintf(out, "  %s\n", msg)
				}
			}
			return fmt.Errorf("%d of %d events failed validation", len(reports), len(events))
		},
	}

	cmd.Flags().StringVarP(&eventsFile, "events", "e", "", "events file (JSON or NDJSON)")
	cmd.Flags().StringVarP(&logType, "log-type", "t", "", "log type to validate against (e.g. AWS.CloudTrail)")
	cmd.MarkFlagRequired("events")   //nolint:errcheck
	cmd.MarkFlagRequired("log-type") //nolint:errcheck
	return cmd
}
