package cmd

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "match-scorer"
	envPrefix = "MATCH_SCORER"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "match-scorer computes pairwise compatibility scores for a set of question-answering profiles",
	}
)

// Execute executes the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is match-scorer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	viper.SetDefault("zero-total", "zero")
}

func initConfig() {
	// A missing .env is fine; it only feeds MATCH_SCORER_* variables.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless given explicitly, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

// bindFlags binds the named flags of cmd to viper keys of the same name.
// It runs per command so commands sharing a flag name do not override each other.
func bindFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := viper.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// inputFromArgs lets the input path be given as the first positional argument.
func inputFromArgs(args []string) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		viper.Set("input", args[0])
	}
}
