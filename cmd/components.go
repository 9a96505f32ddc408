package cmd

import (
	"github.com/spf13/cobra"

	"github.com/planbench/planbench/internal/compmap"
)

var componentsFlags struct {
	report string
	runLog string
	out    string
}

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "Map benchmark queries to the component choices scraped from a run log",
	RunE:  mapComponents,
}

func init() {
	componentsCmd.Flags().StringVar(&componentsFlags.report, "report", "", "benchmark report JSON")
	componentsCmd.Flags().StringVar(&componentsFlags.runLog, "run-log", "", "execution log to scrape component choices from")
	componentsCmd.Flags().StringVar(&componentsFlags.out, "out", "query_components.tsv", "output mapping path")
	_ = componentsCmd.MarkFlagRequired("report")
	_ = componentsCmd.MarkFlagRequired("run-log")
	rootCmd.AddCommand(componentsCmd)
}

func mapComponents(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() {
		_ = log.Sync()
	}()

	names, err := compmap.LoadQueryNames(componentsFlags.report)
	if err != nil {
		return err
	}
	components, err := compmap.ExtractComponents(componentsFlags.runLog)
	if err != nil {
		return err
	}
	if len(names) != len(components) {
		log.Warnf("count mismatch: %d queries vs %d components", len(names), len(components))
	}
	if err := compmap.WriteMapping(componentsFlags.out, names, components); err != nil {
		return err
	}
	log.Infof("wrote mapping for %d queries to %s", min(len(names), len(components)), componentsFlags.out)
	return nil
}
