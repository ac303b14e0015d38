// Package config loads the YAML configuration of the command line tools.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-psd/analysis"
	"github.com/cwbudde/algo-psd/channel"
	"github.com/cwbudde/algo-psd/dsp/core"
	"github.com/cwbudde/algo-psd/dsp/decimate"
	"github.com/cwbudde/algo-psd/dsp/spectrum"
	"github.com/cwbudde/algo-psd/dsp/window"
	"github.com/cwbudde/algo-psd/internal/logging"
)

// StoreKind selects the channel store backend.
type StoreKind string

const (
	StoreSQLite  StoreKind = "sqlite"
	StoreParquet StoreKind = "parquet"
)

// Config is the top-level configuration document.
type Config struct {
	Settings Settings       `yaml:"settings"`
	Store    StoreConfig    `yaml:"store"`
	Display  DisplayConfig  `yaml:"display"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Maximax  MaximaxConfig  `yaml:"maximax"`
	Octave   OctaveConfig   `yaml:"octave"`
}

// Settings holds process-wide settings.
type Settings struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`
}

// StoreConfig locates the channel store.
type StoreConfig struct {
	Kind StoreKind `yaml:"kind"`
	// Path is the database file for sqlite and the root directory for parquet.
	Path string `yaml:"path"`
}

// DisplayConfig controls the decimated view.
type DisplayConfig struct {
	Target   int               `yaml:"target"`
	Strategy decimate.Strategy `yaml:"strategy"`
}

// AnalysisConfig holds the Welch parameters.
type AnalysisConfig struct {
	DF           float64          `yaml:"df"`
	EfficientFFT bool             `yaml:"efficientFFT"`
	Overlap      float64          `yaml:"overlap"`
	Taper        window.Type      `yaml:"taper"`
	TaperShape   float64          `yaml:"taperShape"`
	Detrend      spectrum.Detrend `yaml:"detrend"`
}

// MaximaxConfig holds the maximax time-window parameters.
type MaximaxConfig struct {
	WindowDuration float64 `yaml:"windowDuration"`
	WindowOverlap  float64 `yaml:"windowOverlap"`
}

// OctaveConfig holds the band conversion parameters. Fraction 0 disables
// the conversion; FMin and FMax of 0 use the full PSD span.
type OctaveConfig struct {
	Fraction int     `yaml:"fraction"`
	FMin     float64 `yaml:"fmin"`
	FMax     float64 `yaml:"fmax"`
}

// Default returns the configuration used for keys missing from a file.
func Default() Config {
	req := analysis.DefaultRequest(channel.Ref{})
	return Config{
		Settings: Settings{LogLevel: "info", LogFormat: "console"},
		Store:    StoreConfig{Kind: StoreSQLite, Path: "channels.db"},
		Display:  DisplayConfig{Target: decimate.DefaultTarget, Strategy: decimate.MinMax},
		Analysis: AnalysisConfig{
			DF:           req.DF,
			EfficientFFT: req.EfficientFFT,
			Overlap:      req.OverlapPercent,
			Taper:        req.Taper,
			Detrend:      req.Detrend,
		},
		Maximax: MaximaxConfig{
			WindowDuration: req.WindowDuration,
			WindowOverlap:  req.WindowOverlapPercent,
		},
		Octave: OctaveConfig{Fraction: req.OctaveFraction},
	}
}

// Load reads and validates the file at path on top of [Default].
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document on top of [Default] and validates it.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", core.ErrInvalidParameter, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Settings.LogLevel); err != nil {
		return fmt.Errorf("%w: settings.logLevel: %w", core.ErrInvalidParameter, err)
	}
	if c.Settings.LogFormat != "json" && c.Settings.LogFormat != "console" {
		return fmt.Errorf("%w: settings.logFormat must be json or console: %q", core.ErrInvalidParameter, c.Settings.LogFormat)
	}

	switch c.Store.Kind {
	case StoreSQLite, StoreParquet:
	default:
		return fmt.Errorf("%w: store.kind must be sqlite or parquet: %q", core.ErrInvalidParameter, c.Store.Kind)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store.path is empty", core.ErrInvalidParameter)
	}

	if c.Display.Target < 2 {
		return fmt.Errorf("%w: display.target must be >= 2: %d", core.ErrInvalidParameter, c.Display.Target)
	}

	req := c.Request(channel.Ref{}, spectrum.KindAveraged)
	if err := req.Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}

	req.Kind = spectrum.KindMaximax
	if err := req.Validate(); err != nil {
		return fmt.Errorf("maximax: %w", err)
	}

	return nil
}

// Request builds an analysis request for ref from the configuration.
func (c Config) Request(ref channel.Ref, kind spectrum.Kind) analysis.Request {
	return analysis.Request{
		Channel:              ref,
		Kind:                 kind,
		DF:                   c.Analysis.DF,
		EfficientFFT:         c.Analysis.EfficientFFT,
		OverlapPercent:       c.Analysis.Overlap,
		Taper:                c.Analysis.Taper,
		TaperShape:           c.Analysis.TaperShape,
		Detrend:              c.Analysis.Detrend,
		WindowDuration:       c.Maximax.WindowDuration,
		WindowOverlapPercent: c.Maximax.WindowOverlap,
		OctaveFraction:       c.Octave.Fraction,
		FMin:                 c.Octave.FMin,
		FMax:                 c.Octave.FMax,
	}
}
