package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/filtering"
	"github.com/spigell/match-scorer/internal/input"
	"github.com/spigell/match-scorer/internal/logger"
	"github.com/spigell/match-scorer/internal/matching"
	"github.com/spigell/match-scorer/internal/metrics"
	"github.com/spigell/match-scorer/internal/output"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errOverwriteDeclined = errors.New("overwrite declined")

var scoreFlags = []string{
	"input", "output", "indent", "workers", "strict", "zero-total",
	"min-score", "top", "exclude-file", "metrics-file", "yes",
}

var scoreCmd = &cobra.Command{
	Use:   "score [input]",
	Short: "Score every ordered pair of profiles and print the results",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		inputFromArgs(args)
		return bindFlags(cmd, scoreFlags...)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringP("input", "i", "", "input JSON file with profiles")
	scoreCmd.Flags().StringP("output", "o", "", "write results to this file instead of stdout")
	scoreCmd.Flags().Bool("indent", false, "indent the results JSON")
	scoreCmd.Flags().IntP("workers", "w", 0, "profiles scored concurrently (default is GOMAXPROCS)")
	scoreCmd.Flags().Bool("strict", false, "fail on the first malformed record instead of skipping it")
	scoreCmd.Flags().String("zero-total", "zero", "policy for profiles without importance weight: zero or exclude")
	scoreCmd.Flags().Float64("min-score", 0, "drop scores below this value")
	scoreCmd.Flags().Int("top", 0, "keep only the N best scores per profile")
	scoreCmd.Flags().StringP("exclude-file", "e", "", "JSON file with an array of profile ids to leave out. Default is unset.")
	scoreCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file after the run")
	scoreCmd.Flags().BoolP("yes", "y", false, "overwrite the output file without asking")
}

// score is the main command for the cli.
func score(cmd *cobra.Command) {
	ctx := cmd.Context()

	logger, err := newLogger()
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if err := runScore(ctx, config, logger, cmd.OutOrStdout(), confirmOverwrite); err != nil {
		if errors.Is(err, errOverwriteDeclined) {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
		logger.Fatal("scoring failed", zap.Error(err))
	}
}

// runScore loads the input, scores all pairs and writes the results.
func runScore(ctx context.Context, config *Config, log *zap.Logger, stdout io.Writer, confirm func(path string) (bool, error)) error {
	started := time.Now()
	log = logger.WithRun(log, uuid.NewString(), config.Input)

	log.Info("starting the match-scorer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	policy, err := matching.ParseZeroTotalPolicy(config.ZeroTotal)
	if err != nil {
		return err
	}

	steps := prepareFilters(config)
	for _, status := range filtering.Describe(steps) {
		log.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	if config.Output != "" {
		if err := checkOverwrite(config, confirm); err != nil {
			return err
		}
	}

	recorder := metrics.New()

	batch, err := input.Load(ctx, config.Input, input.Options{Strict: config.Strict, Logger: log})
	if err != nil {
		return err
	}
	recorder.Loaded(len(batch.Profiles), batch.SkippedBy())

	log.Info("profiles loaded",
		zap.Int("count", len(batch.Profiles)),
		zap.Int("skipped_records", len(batch.Skipped)),
	)

	aggregator := matching.NewAggregator(
		matching.Calculator{Policy: policy},
		matching.WithWorkers(config.Workers),
		matching.WithObserver(recorder),
		matching.WithLogger(log),
	)

	results, err := aggregator.Aggregate(ctx, batch.Profiles)
	if err != nil {
		return err
	}

	log.Info("pairs scored",
		zap.Int("count", results.Len()),
		zap.Int("excluded", results.Excluded()),
		zap.String("zero_total_policy", policy.String()),
	)

	doc, err := filtering.Run(ctx, filtering.Deps{Logger: log}, steps, output.Shape(results))
	if err != nil {
		return fmt.Errorf("filtering results: %w", err)
	}

	if err := writeDocument(config, doc, stdout); err != nil {
		return err
	}

	elapsed := time.Since(started)
	recorder.Finished(elapsed)

	if config.MetricsFile != "" {
		if err := recorder.WriteTextfile(config.MetricsFile); err != nil {
			return err
		}
		log.Debug("metrics written", zap.String("filename", config.MetricsFile))
	}

	log.Info("done",
		zap.Int("profiles", len(doc.Results)),
		zap.Int("scores", doc.Len()),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

func newLogger() (*zap.Logger, error) {
	return logger.New(viper.GetBool("json"), viper.GetBool("debug"))
}

func prepareFilters(config *Config) []filtering.Filter {
	steps := []filtering.Filter{
		filtering.NewExcludeFile(config.ExcludeFile),
		filtering.NewMinScore(config.MinScore),
		filtering.NewTop(config.Top),
	}

	if config.ExcludeFile == "" {
		filtering.DisableByName(steps, "exclude_file", "exclude file is not set")
	}
	return steps
}

func checkOverwrite(config *Config, confirm func(path string) (bool, error)) error {
	if config.AutoApprove {
		return nil
	}

	if _, err := os.Stat(config.Output); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("checking output file: %w", err)
	}

	ok, err := confirm(config.Output)
	if err != nil {
		return fmt.Errorf("asking for confirmation: %w", err)
	}
	if !ok {
		return errOverwriteDeclined
	}
	return nil
}

func writeDocument(config *Config, doc output.Document, stdout io.Writer) error {
	if config.Output == "" {
		return output.Write(stdout, doc, config.Indent)
	}
	return output.WriteFile(config.Output, doc, config.Indent)
}

func confirmOverwrite(path string) (bool, error) {
	prompt := promptui.Select{
		Label: fmt.Sprintf("%s already exists. Overwrite?", path),
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return false, err
	}
	return answer == PromptYes, nil
}
