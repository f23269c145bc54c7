package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqllens/sqllens/internal/config"
	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/engine"
	"github.com/sqllens/sqllens/internal/observability"
	"github.com/sqllens/sqllens/internal/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file...>",
	Short: "Score multiple files as persisted jobs",
	Long: `Score one or more files, recording each as a job in the local store.

Each file becomes its own job with per-unit results. Failed units
degrade the job score instead of failing the whole batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	batchCmd.Flags().Int("concurrency", 3, "Concurrent files")
}

func runBatch(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	cfg := config.GetConfig()
	if cfg == nil {
		return errors.New("config not loaded")
	}
	if !cmd.Flags().Changed("concurrency") && cfg.Workers > 0 {
		concurrency = cfg.Workers
	}

	svc, err := buildService(cfg, db, observability.CLILogger)
	if err != nil {
		return err
	}

	jobs, err := runBatchFiles(ctx, svc, args, concurrency)
	if err != nil {
		return err
	}

	rendered, err := renderBatchJobs(format, jobs)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(totalUnits(jobs), startedAt)
	}
	return nil
}

type fileJob struct {
	index int
	path  string
}

func runBatchFiles(ctx context.Context, svc *engine.Service, paths []string, concurrency int) ([]*core.BatchJob, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make([]*core.BatchJob, len(paths))
	work := make(chan fileJob)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	setErr := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	worker := func() {
		defer wg.Done()
		for item := range work {
			if ctx.Err() != nil {
				return
			}
			data, err := os.ReadFile(item.path)
			if err != nil {
				setErr(err)
				return
			}
			job, _, err := svc.SubmitSync(ctx, filepath.Base(item.path), data)
			if err != nil && job == nil {
				setErr(err)
				return
			}
			jobs[item.index] = job
		}
	}

	if concurrency > len(paths) {
		concurrency = len(paths)
	}
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go worker()
	}

sendLoop:
	for i, path := range paths {
		select {
		case <-ctx.Done():
			break sendLoop
		case work <- fileJob{index: i, path: path}:
		}
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return jobs, nil
}

func renderBatchJobs(format output.Format, jobs []*core.BatchJob) (string, error) {
	present := make([]*core.BatchJob, 0, len(jobs))
	for _, job := range jobs {
		if job != nil {
			present = append(present, job)
		}
	}

	formatter := output.NewFormatter(format)
	return formatter.FormatJobList(present)
}

func totalUnits(jobs []*core.BatchJob) int {
	total := 0
	for _, job := range jobs {
		if job == nil {
			continue
		}
		total += job.ProcessedUnits
	}
	return total
}
