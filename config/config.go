// Package config defines the configuration of a hole filling run.
package config

import (
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"go.viam.com/holefill/holefill"
	"go.viam.com/holefill/logging"
)

// DefaultOutputDir is where filled images are written when nothing else is configured.
const DefaultOutputDir = "."

// Config describes how images are filled and where the results go.
type Config struct {
	ConfigFilePath string `json:"-"`

	Connectivity int          `json:"connectivity,omitempty"`
	Weight       WeightConfig `json:"weight"`
	OutputDir    string       `json:"output_dir,omitempty"`
	Threshold    *float64     `json:"threshold,omitempty"`
	Mode         string       `json:"mode,omitempty"`

	// LogLevel, when set, replaces the level the logger was created with.
	LogLevel *logging.Level `json:"log_level,omitempty"`
}

// WeightConfig selects a registered weight function and its attributes.
type WeightConfig struct {
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Connectivity: 8,
		Weight:       WeightConfig{Type: holefill.DefaultWeightName},
		OutputDir:    DefaultOutputDir,
		Threshold:    lo.ToPtr(holefill.DefaultThreshold),
		Mode:         "both",
	}
}

// fillDefaults sets every unset field to its default.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Connectivity == 0 {
		c.Connectivity = def.Connectivity
	}
	if c.Weight.Type == "" {
		c.Weight.Type = def.Weight.Type
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.Threshold == nil {
		c.Threshold = def.Threshold
	}
	if c.Mode == "" {
		c.Mode = def.Mode
	}
}

// Validate ensures all parts of the config are valid. The weight function is constructed to
// validate its attributes.
func (c *Config) Validate(path string) error {
	if _, err := holefill.ParseConnectivity(c.Connectivity); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if c.Threshold != nil {
		if err := holefill.ValidateThreshold(*c.Threshold); err != nil {
			return goutils.NewConfigValidationError(path, err)
		}
	}
	if _, err := holefill.ParseModes(c.Mode); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if _, err := holefill.NewWeightFunction(c.Weight.Type, c.Weight.Attributes); err != nil {
		return goutils.NewConfigValidationError(path+".weight", err)
	}
	return nil
}

// Modes returns the fill modes to run.
func (c *Config) Modes() ([]holefill.Mode, error) {
	return holefill.ParseModes(c.Mode)
}

// NewPipeline builds the pipeline described by the config.
func (c *Config) NewPipeline(logger logging.Logger) (*holefill.Pipeline, error) {
	if c.LogLevel != nil {
		logger.SetLevel(*c.LogLevel)
	}
	conn, err := holefill.ParseConnectivity(c.Connectivity)
	if err != nil {
		return nil, err
	}
	weight, err := holefill.NewWeightFunction(c.Weight.Type, c.Weight.Attributes)
	if err != nil {
		return nil, err
	}
	builder := holefill.NewPointSetBuilder(conn, logger.Sublogger("builder"))
	if c.Threshold != nil {
		builder.Threshold = *c.Threshold
	}
	return holefill.NewPipeline(builder, holefill.NewHoleFiller(weight, logger.Sublogger("filler")), logger), nil
}
