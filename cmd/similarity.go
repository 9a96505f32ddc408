package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planbench/planbench/internal/compmap"
)

var similarityFlags struct {
	bestCSV string
	mapping string
}

var similarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Score a query-component mapping against the reference best choices",
	RunE:  scoreSimilarity,
}

func init() {
	similarityCmd.Flags().StringVar(&similarityFlags.bestCSV, "best-csv", "", "reference best-choice CSV (query,best_combo)")
	similarityCmd.Flags().StringVar(&similarityFlags.mapping, "mapping", "", "query-component TSV produced by the components command")
	_ = similarityCmd.MarkFlagRequired("best-csv")
	_ = similarityCmd.MarkFlagRequired("mapping")
	rootCmd.AddCommand(similarityCmd)
}

func scoreSimilarity(cmd *cobra.Command, args []string) error {
	best, err := compmap.LoadBestCSV(similarityFlags.bestCSV)
	if err != nil {
		return err
	}
	pred, err := compmap.LoadMapping(similarityFlags.mapping)
	if err != nil {
		return err
	}

	eval := compmap.Evaluate(best, pred)
	if eval.Count == 0 {
		return fmt.Errorf("no overlapping queries between %s and %s", similarityFlags.bestCSV, similarityFlags.mapping)
	}

	fmt.Printf("Compared queries:   %d\n", eval.Count)
	fmt.Printf("Exact matches:      %d (%.1f%%)\n", eval.Exact, eval.ExactPct*100)
	fmt.Printf("Average Hamming:    %.3f\n", eval.AvgHamming)
	fmt.Printf("Maximum Hamming:    %d\n", eval.MaxHamming)
	for dist, count := range eval.DistCounts {
		fmt.Printf("  distance %d: %d\n", dist, count)
	}
	return nil
}
