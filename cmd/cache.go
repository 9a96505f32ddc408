package cmd

import (
	"github.com/spf13/cobra"

	"github.com/planbench/planbench/internal/fingerprint"
)

var cacheFlags struct {
	src      string
	dst      string
	queryDir string
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Fingerprint queries from a best-combination CSV into a hash/scenario cache",
	RunE:  generateCache,
}

func init() {
	cacheCmd.Flags().StringVar(&cacheFlags.src, "src", "", "best-combination CSV (query,best_combo)")
	cacheCmd.Flags().StringVar(&cacheFlags.dst, "dst", "speedup_hash_cache.csv", "output cache path")
	cacheCmd.Flags().StringVar(&cacheFlags.queryDir, "query-dir", "", "directory containing the referenced .sql files")
	_ = cacheCmd.MarkFlagRequired("src")
	_ = cacheCmd.MarkFlagRequired("query-dir")
	rootCmd.AddCommand(cacheCmd)
}

func generateCache(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() {
		_ = log.Sync()
	}()

	entries, err := fingerprint.GenerateCache(cacheFlags.src, cacheFlags.queryDir)
	if err != nil {
		return err
	}
	if err := fingerprint.WriteCache(cacheFlags.dst, entries); err != nil {
		return err
	}
	log.Infof("wrote %d cache entries to %s", len(entries), cacheFlags.dst)
	return nil
}
