package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/match-scorer/internal/input"
)

var validateCmd = &cobra.Command{
	Use:   "validate [input]",
	Short: "Check an input file and report records that would be skipped",
	Args:  cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		inputFromArgs(args)
		return bindFlags(cmd, "input", "strict")
	},
	Run: func(cmd *cobra.Command, _ []string) {
		logger, err := newLogger()
		if err != nil {
			log.Fatalf("creating a logger: %s", err)
		}
		defer logger.Sync()

		config, err := getConfig()
		if err != nil {
			logger.Fatal("getting a config", zap.Error(err))
		}

		if _, err := runValidate(cmd.Context(), config, logger); err != nil {
			logger.Fatal("validation failed", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("input", "i", "", "input JSON file with profiles")
	validateCmd.Flags().Bool("strict", false, "fail on the first malformed record instead of skipping it")
}

// runValidate loads the input and logs every record that scoring would skip.
func runValidate(ctx context.Context, config *Config, log *zap.Logger) (*input.Batch, error) {
	batch, err := input.Load(ctx, config.Input, input.Options{Strict: config.Strict, Logger: zap.NewNop()})
	if err != nil {
		return nil, err
	}

	for _, skip := range batch.Skipped {
		log.Warn("record would be skipped",
			zap.String("record", skip.Record),
			zap.String("reason", skip.Reason),
			zap.Error(skip.Err),
		)
	}

	questions := 0
	empty := 0
	for _, p := range batch.Profiles {
		questions += p.Len()
		if p.TotalWeight() == 0 {
			empty++
		}
	}

	log.Info("input is valid",
		zap.String("input", config.Input),
		zap.Int("profiles", len(batch.Profiles)),
		zap.Int("answers", questions),
		zap.Int("weightless_profiles", empty),
		zap.Int("skipped_records", len(batch.Skipped)),
	)
	return batch, nil
}
