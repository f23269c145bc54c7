package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sqllens/sqllens/internal/config"
	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/extract"
	"github.com/sqllens/sqllens/internal/observability"
	"github.com/sqllens/sqllens/internal/output"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <file>",
	Short: "Score a SQL file, manifest, or notebook",
	Long: `Score every code unit in a file across all quality dimensions.

Accepts plain SQL files, YAML unit manifests, and Jupyter notebooks.
Pass "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	evaluateCmd.Flags().StringSlice("backends", nil, "Backends to use (defaults to config)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	backendsOverride, err := cmd.Flags().GetStringSlice("backends")
	if err != nil {
		return err
	}

	filename, data, err := readEvaluateInput(args[0])
	if err != nil {
		return err
	}

	units, err := extract.Units(filename, data)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return errors.New("no code units found in input")
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if names := normalizeBackendList(backendsOverride); len(names) > 0 {
		cfg.Backends.Enabled = names
	}

	svc, err := buildService(cfg, nil, nil)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	results := make([]*core.EvaluationResult, 0, len(units))
	for _, unit := range units {
		results = append(results, svc.EvaluateUnit(ctx, unit))
	}

	rendered, err := output.FormatResultList(format, results)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(len(results), startedAt)
	}
	return nil
}

func readEvaluateInput(path string) (string, []byte, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, err
		}
		return "stdin.sql", data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(path), data, nil
}

func normalizeBackendList(values []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			result = append(result, name)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func logThroughput(count int, startedAt time.Time) {
	if count <= 0 {
		return
	}
	elapsed := time.Since(startedAt)
	if elapsed <= 0 {
		return
	}
	rate := float64(count) / elapsed.Seconds()
	observability.CLILogger.Info(
		"Evaluation throughput",
		zap.Int("units", count),
		zap.Duration("elapsed", elapsed),
		zap.Float64("rate_per_sec", rate),
	)
}
