package cmd

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the merged view of the config file, environment and flags.
type Config struct {
	Input       string  `mapstructure:"input" json:"input" validate:"required"`
	Output      string  `mapstructure:"output" json:"output,omitempty"`
	Indent      bool    `mapstructure:"indent" json:"indent"`
	Workers     int     `mapstructure:"workers" json:"workers" validate:"gte=0"`
	Strict      bool    `mapstructure:"strict" json:"strict"`
	ZeroTotal   string  `mapstructure:"zero-total" json:"zero-total" validate:"omitempty,oneof=zero exclude"`
	MinScore    float64 `mapstructure:"min-score" json:"min-score" validate:"gte=0,lte=1"`
	Top         int     `mapstructure:"top" json:"top" validate:"gte=0"`
	ExcludeFile string  `mapstructure:"exclude-file" json:"exclude-file,omitempty"`
	MetricsFile string  `mapstructure:"metrics-file" json:"metrics-file,omitempty"`
	AutoApprove bool    `mapstructure:"yes" json:"yes"`
}

var configValidator = validator.New()

func getConfig() (*Config, error) {
	return decodeConfig(viper.AllSettings())
}

// decodeConfig turns a settings map into a validated Config. Values coming
// from env or flags may be strings, so weak typing is on.
func decodeConfig(settings map[string]any) (*Config, error) {
	config := &Config{}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := configValidator.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
