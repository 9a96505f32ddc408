package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/planbench/planbench/internal/config"
	"github.com/planbench/planbench/internal/executor"
	"github.com/planbench/planbench/internal/report"
	"github.com/planbench/planbench/internal/runner"
	"github.com/planbench/planbench/internal/session"
)

var runFlags struct {
	env              string
	iterations       int
	mode             string
	sqlDir           string
	configPath       string
	fullPlan         bool
	statementTimeout time.Duration
	out              string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a directory of SQL queries for several rounds and persist the results",
	RunE:  runBenchmark,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.env, "env", "unknown", "environment name to benchmark")
	runCmd.Flags().IntVarP(&runFlags.iterations, "iterations", "n", 5, "number of rounds to run each query")
	runCmd.Flags().StringVar(&runFlags.mode, "mode", "simple", "execution mode: simple, detailed or explain")
	runCmd.Flags().StringVar(&runFlags.sqlDir, "sql-dir", "", "directory containing .sql query files")
	runCmd.Flags().StringVar(&runFlags.configPath, "config", "", "JSON file overriding connection environments")
	runCmd.Flags().BoolVar(&runFlags.fullPlan, "full-plan", false, "keep the raw EXPLAIN payload in the report (explain mode)")
	runCmd.Flags().DurationVar(&runFlags.statementTimeout, "statement-timeout", 0, "per-statement timeout applied on the session")
	runCmd.Flags().StringVar(&runFlags.out, "out", "", "report path (default query_results_<env>_<timestamp>.json)")
	_ = runCmd.MarkFlagRequired("sql-dir")
	rootCmd.AddCommand(runCmd)
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() {
		_ = log.Sync()
	}()

	if err := config.Apply(runFlags.configPath); err != nil {
		log.Warnf("config %s not applied, using defaults: %v", runFlags.configPath, err)
	}
	params := config.Lookup(runFlags.env)

	mode, err := executor.ParseMode(runFlags.mode)
	if err != nil {
		return err
	}
	if runFlags.iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", runFlags.iterations)
	}

	records, err := runner.LoadQueries(runFlags.sqlDir, log)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no .sql files found in %s", runFlags.sqlDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(params, runFlags.statementTimeout, log)
	connectDur, err := sess.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", runFlags.env, err)
	}
	defer sess.Disconnect(context.Background())

	dispatch := executor.New(sess, runFlags.env, mode, executor.DefaultExplainOptions(), runFlags.fullPlan, log)
	agg := report.NewAggregator(log)
	orch := runner.New(dispatch, agg, runFlags.iterations, log)

	if err := orch.Run(ctx, records); err != nil {
		log.Warnf("benchmark interrupted: %v", err)
	}

	rep := agg.Finalize(runFlags.env, connectDur.Seconds())
	if err := report.Save(rep, runFlags.out); err != nil {
		log.Errorf("save report: %v", err)
		return err
	}
	log.Infof("benchmark complete: %d queries, %d rounds", rep.Summary.TotalQueries, rep.Summary.Rounds)
	return nil
}
