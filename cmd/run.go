package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"vigil/core"
	"vigil/detect"
	"vigil/ingest"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var (
		eventsFile   string
		ruleIDs      []string
		matchingOnly bool
		failOnMatch  bool
		parallel     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate detections against an events file",
		Long: `Loads the detection manifests from the configured rules directory,
reads events from a JSON or NDJSON file, and prints one verdict per
(event, detection) pair.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			registry := detect.NewRegistry()
			loader := detect.NewLoader(registry, logger)

			var sp *spinner.Spinner
			if !quiet && !outputJSON {
				sp = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Suffix = " Loading detections..."
				sp.Start()
			}
			_, err = loader.LoadMany(cfg.RulesDir)
			if sp != nil {
				sp.Stop()
			}
			if err != nil {
				return err
			}
			if registry.Len() == 0 {
				warningColor.Fprintln(os.Stderr, "No detections loaded; nothing to evaluate")
			}

			events, err := ingest.LoadEventsFile(eventsFile)
			if err != nil {
				return err
			}
			ingest.Tag(events)

			engine := detect.NewEngine(registry, cfg.Engine.Workers, logger)

			var verdicts []core.Verdict
			switch {
			case matchingOnly:
				verdicts = engine.RunMatching(events, ruleIDs)
			case parallel || cfg.Engine.Parallel:
				verdicts = engine.RunParallel(context.Background(), events, ruleIDs)
			default:
				verdicts = engine.Run(events, ruleIDs)
			}

			if err := printVerdicts(cmd, verdicts); err != nil {
				return err
			}

			if failOnMatch {
				for _, v := range verdicts {
					if v.Matched {
						return fmt.Errorf("%d of %d verdicts matched", countMatched(verdicts), len(verdicts))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&eventsFile, "events", "e", "", "events file (JSON or NDJSON)")
	cmd.Flags().StringSliceVarP(&ruleIDs, "rule", "r", nil, "evaluate only these rule IDs (repeatable)")
	cmd.Flags().BoolVarP(&matchingOnly, "matching-only", "m", false, "print only matched verdicts")
	cmd.Flags().BoolVar(&failOnMatch, "fail-on-match", false, "exit non-zero when any verdict matched")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "evaluate events on a worker pool")
	cmd.MarkFlagRequired("events") //nolint:errcheck
	return cmd
}

func countMatched(verdicts []core.Verdict) int {
	n := 0
	for _, v := range verdicts {
		if v.Matched {
			n++
		}
	}
	return n
}

func printVerdicts(cmd *cobra.Command, verdicts []core.Verdict) error {
	out := cmd.OutOrStdout()

	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(verdicts)
	}

	headerColor.Fprintf(out, "%-36s %-8s %-10s %s\n", "RULE", "MATCHED", "SEVERITY", "TITLE")
	for _, v := range verdicts {
		switch {
		case v.Error != "":
			errorColor.Fprintf(out, "%-36s %-8s %-10s %s\n", v.RuleID, "error", v.Severity, v.Error)
		case v.Matched:
			successColor.Fprintf(out, "%-36s %-8t %-10s %s\n", v.RuleID, v.Matched, v.Severity, v.Title)
		default:
			fmt.Fprintf(out, "%-36s %-8t %-10s %s\n", v.RuleID, v.Matched, "", "")
		}
	}

	matched := countMatched(verdicts)
	fmt.Fprintln(out)
	infoColor.Fprintf(out, "%d verdicts, %d matched\n", len(verdicts), matched)

	if matched > 0 {
		fmt.Fprintln(out)
		headerColor.Fprintln(out, "Matched detail:")
		for _, v := range verdicts {
			if !v.Matched {
				continue
			}
			successColor.Fprintf(out, "  %s", v.RuleID)
			fmt.Fprintf(out, "  [%s]  %s\n", v.Severity, v.Title)
			if v.DedupKey != "" {
				fmt.Fprintf(out, "    dedup: %s\n", v.DedupKey)
			}
			if v.Description != "" {
				fmt.Fprintf(out, "    %s\n", strings.TrimSpace(v.Description))
			}
		}
	}
	return nil
}
