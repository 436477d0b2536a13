package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"vigil/detect"

	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	var builtins bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List loaded detections",
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

			out := cmd.OutOrStdout()

			if builtins {
				names := detect.BuiltinNames()
				if outputJSON {
					return json.NewEncoder(out).Encode(names)
				}
				headerColor.Fprintln(out, "Catalog detections:")
				for _, name := range names {
					fmt.Fprintf(out, "  %s\n", name)
				}
				return nil
			}

			registry := detect.NewRegistry()
			loader := detect.NewLoader(registry, logger)
			if _, err := loader.LoadMany(cfg.RulesDir); err != nil {
				return err
			}

			units := registry.Units()
			if outputJSON {
				type ruleInfo struct {
					ID        string   `json:"id"`
					SourceRef string   `json:"source_ref"`
					Enabled   bool     `json:"enabled"`
					LogTypes  []string `json:"log_types,omitempty"`
					Tags      []string `json:"tags,omitempty"`
				}
				infos := make([]ruleInfo, 0, len(units))
				for _, u := range units {
					infos = append(infos, ruleInfo{
						ID: u.ID, SourceRef: u.SourceRef, Enabled: u.Enabled,
						LogTypes: u.LogTypes, Tags: u.Tags,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			headerColor.Fprintf(out, "%-36s %-8s %-24s %s\n", "ID", "ENABLED", "LOG TYPES", "TAGS")
			for _, u := range units {
				line := fmt.Sprintf("%-36s %-8t %-24s %s",
					u.ID, u.Enabled, strings.Join(u.LogTypes, ","), strings.Join(u.Tags, ","))
				if u.Enabled {
					fmt.Fprintln(out, line)
				} else {
					warningColor.Fprintln(out, line)
				}
			}
			infoColor.Fprintf(out, "\n%d detections loaded from %s\n", len(units), cfg.RulesDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&builtins, "builtins", false, "list the compiled-in catalog instead of loaded manifests")
	return cmd
}
