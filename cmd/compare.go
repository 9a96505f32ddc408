package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/planbench/planbench/internal/model"
	"github.com/planbench/planbench/internal/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare <report.json>...",
	Short: "Compare persisted benchmark reports across environments",
	Args:  cobra.MinimumNArgs(1),
	RunE:  compareReports,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func compareReports(cmd *cobra.Command, args []string) error {
	reports := make([]*model.SessionReport, 0, len(args))
	for _, path := range args {
		rep, err := report.Load(path)
		if err != nil {
			return err
		}
		reports = append(reports, rep)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Environment < reports[j].Environment })

	fmt.Printf("%-12s %10s %12s %12s %10s\n", "Environment", "Connect", "AvgRound", "TotalQuery", "StdDev")
	for _, rep := range reports {
		fmt.Printf("%-12s %9.4fs %11.4fs %11.4fs %9.4fs\n",
			rep.Environment,
			rep.ConnectionTime,
			rep.Summary.AverageRoundTime,
			rep.Summary.TotalExecutionTime,
			rep.Summary.StdDeviation,
		)
	}

	fastest := reports[0]
	for _, rep := range reports[1:] {
		if rep.Summary.AverageRoundTime < fastest.Summary.AverageRoundTime {
			fastest = rep
		}
	}
	fmt.Printf("\nFastest average round: %s (%.4fs)\n", fastest.Environment, fastest.Summary.AverageRoundTime)
	return nil
}
