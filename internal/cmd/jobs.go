package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqllens/sqllens/internal/config"
	"github.com/sqllens/sqllens/internal/output"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage stored evaluation jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs",
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a job with its unit results",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a job and its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsDelete,
}

var jobsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove jobs older than the retention window",
	RunE:  runJobsCleanup,
}

var jobsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize stored jobs",
	RunE:  runJobsStats,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsDeleteCmd, jobsCleanupCmd, jobsStatsCmd)

	jobsListCmd.Flags().Int("limit", 20, "Maximum jobs to list (0 for all)")
	jobsListCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	jobsShowCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	jobsCleanupCmd.Flags().Duration("older-than", 0, "Retention window override (defaults to config)")
}

func runJobsList(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	if limit < 0 {
		return errors.New("limit must be non-negative")
	}

	format, err := flagFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	jobs, err := db.ListJobs(ctx, limit)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatJobList(jobs)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	format, err := flagFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	id := strings.TrimSpace(args[0])
	job, err := db.GetJob(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return fmt.Errorf("job %q not found", id)
	}

	results, err := db.ListUnitResults(ctx, id)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatJob(job, results)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}
	return nil
}

func runJobsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	id := strings.TrimSpace(args[0])
	deleted, err := db.DeleteJob(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("job %q not found", id)
	}

	fmt.Printf("Deleted job %s\n", id)
	return nil
}

func runJobsCleanup(cmd *cobra.Command, args []string) error {
	olderThan, err := cmd.Flags().GetDuration("older-than")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	if olderThan <= 0 {
		olderThan = retentionWindow()
	}

	removed, err := db.CleanupOldJobs(ctx, olderThan)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d job(s) older than %s\n", removed, olderThan)
	return nil
}

func runJobsStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	stats, err := db.Statistics(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Total jobs:     %d\n", stats.TotalJobs)
	fmt.Printf("Completed:      %d\n", stats.CompletedJobs)
	fmt.Printf("Failed:         %d\n", stats.FailedJobs)
	fmt.Printf("Average score:  %.1f\n", stats.AverageScore)
	if len(stats.Languages) > 0 {
		fmt.Println("Languages:")
		for lang, count := range stats.Languages {
			fmt.Printf("  %-12s %d\n", lang, count)
		}
	}
	return nil
}

func flagFormat(cmd *cobra.Command) (output.Format, error) {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(formatValue)
}

func retentionWindow() time.Duration {
	days := 30
	if cfg := config.GetConfig(); cfg != nil && cfg.Store.RetentionDays > 0 {
		days = cfg.Store.RetentionDays
	}
	return time.Duration(days) * 24 * time.Hour
}
