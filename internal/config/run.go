package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/icedrift/internal/drift"
	"github.com/banshee-data/icedrift/internal/fsutil"
	"github.com/banshee-data/icedrift/internal/pointcloud"
	"github.com/banshee-data/icedrift/internal/units"
)

// maxFileSize caps configuration files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// RunConfig is the on-disk and command-line form of a correction run. Every
// field is optional so that a file and a set of flags can be layered with
// Merge; Resolve applies defaults and produces the immutable Run.
type RunConfig struct {
	Input  *string `json:"input,omitempty" yaml:"input,omitempty"`
	Output *string `json:"output,omitempty" yaml:"output,omitempty"`
	Format *string `json:"format,omitempty" yaml:"format,omitempty"` // "nir" or "green"

	// Drift
	DriftSpeed     *float64 `json:"drift_speed,omitempty" yaml:"drift_speed,omitempty"`
	DriftSpeedUnit *string  `json:"drift_speed_unit,omitempty" yaml:"drift_speed_unit,omitempty"` // default m/min
	DriftBearing   *float64 `json:"drift_bearing,omitempty" yaml:"drift_bearing,omitempty"`       // degrees clockwise from north
	ExtraDrift     *float64 `json:"extra_drift,omitempty" yaml:"extra_drift,omitempty"`           // metres along the bearing

	// Reference pass, GPS seconds
	ReferenceT0   *float64 `json:"reference_t0,omitempty" yaml:"reference_t0,omitempty"`
	ReferenceT1   *float64 `json:"reference_t1,omitempty" yaml:"reference_t1,omitempty"`
	SameDirection *bool    `json:"same_direction,omitempty" yaml:"same_direction,omitempty"`

	// Outputs beyond the corrected points
	Plot     *string `json:"plot,omitempty" yaml:"plot,omitempty"`
	RunLog   *string `json:"runlog,omitempty" yaml:"runlog,omitempty"`
	LogLevel *string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Run is the validated, immutable configuration used by a correction run.
type Run struct {
	Input          string  `json:"input"`
	Output         string  `json:"output"`
	Format         string  `json:"format"`
	DriftSpeed     float64 `json:"drift_speed"`
	DriftSpeedUnit string  `json:"drift_speed_unit"`
	DriftBearing   float64 `json:"drift_bearing"`
	ExtraDrift     float64 `json:"extra_drift"`
	ReferenceT0    float64 `json:"reference_t0"`
	ReferenceT1    float64 `json:"reference_t1"`
	SameDirection  bool    `json:"same_direction"`
	Plot           string  `json:"plot,omitempty"`
	RunLog         string  `json:"runlog,omitempty"`
	LogLevel       string  `json:"log_level"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }

// EmptyRunConfig returns a RunConfig with all fields set to nil.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig loads a RunConfig from a .json, .yaml or .yml file. The
// result is not validated: flags may still fill in missing fields.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}
	return cfg, nil
}

// Merge overlays every non-nil field of o onto c.
func (c *RunConfig) Merge(o *RunConfig) {
	if o == nil {
		return
	}
	if o.Input != nil {
		c.Input = o.Input
	}
	if o.Output != nil {
		c.Output = o.Output
	}
	if o.Format != nil {
		c.Format = o.Format
	}
	if o.DriftSpeed != nil {
		c.DriftSpeed = o.DriftSpeed
	}
	if o.DriftSpeedUnit != nil {
		c.DriftSpeedUnit = o.DriftSpeedUnit
	}
	if o.DriftBearing != nil {
		c.DriftBearing = o.DriftBearing
	}
	if o.ExtraDrift != nil {
		c.ExtraDrift = o.ExtraDrift
	}
	if o.ReferenceT0 != nil {
		c.ReferenceT0 = o.ReferenceT0
	}
	if o.ReferenceT1 != nil {
		c.ReferenceT1 = o.ReferenceT1
	}
	if o.SameDirection != nil {
		c.SameDirection = o.SameDirection
	}
	if o.Plot != nil {
		c.Plot = o.Plot
	}
	if o.RunLog != nil {
		c.RunLog = o.RunLog
	}
	if o.LogLevel != nil {
		c.LogLevel = o.LogLevel
	}
}

// Validate checks that the configuration values are valid and that every
// required field is present.
func (c *RunConfig) Validate() error {
	var missing []string
	if c.Input == nil || *c.Input == "" {
		missing = append(missing, "input")
	}
	if c.Output == nil || *c.Output == "" {
		missing = append(missing, "output")
	}
	if c.DriftSpeed == nil {
		missing = append(missing, "drift_speed")
	}
	if c.DriftBearing == nil {
		missing = append(missing, "drift_bearing")
	}
	if c.ReferenceT0 == nil {
		missing = append(missing, "reference_t0")
	}
	if c.ReferenceT1 == nil {
		missing = append(missing, "reference_t1")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	same, err := fsutil.SamePath(*c.Input, *c.Output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if same {
		return fmt.Errorf("output %q must differ from input %q", *c.Output, *c.Input)
	}

	if _, err := pointcloud.FormatByName(c.GetFormat()); err != nil {
		return err
	}
	if !units.IsValid(c.GetDriftSpeedUnit()) {
		return fmt.Errorf("drift_speed_unit must be one of %s, got %q", units.GetValidUnitsString(), c.GetDriftSpeedUnit())
	}

	finite := map[string]*float64{
		"drift_speed":   c.DriftSpeed,
		"drift_bearing": c.DriftBearing,
		"extra_drift":   c.ExtraDrift,
		"reference_t0":  c.ReferenceT0,
		"reference_t1":  c.ReferenceT1,
	}
	for name, v := range finite {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%s must be finite, got %v", name, *v)
		}
	}
	if *c.DriftSpeed < 0 {
		return fmt.Errorf("drift_speed must be non-negative, got %f", *c.DriftSpeed)
	}

	if _, err := drift.NewReferenceInterval(*c.ReferenceT0, *c.ReferenceT1); err != nil {
		return err
	}

	if c.LogLevel != nil && *c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(*c.LogLevel); err != nil {
			return fmt.Errorf("invalid log_level %q: %w", *c.LogLevel, err)
		}
	}
	return nil
}

// GetFormat returns the record format or the default.
func (c *RunConfig) GetFormat() string {
	if c.Format == nil || *c.Format == "" {
		return pointcloud.FormatGreen // default
	}
	return *c.Format
}

// GetDriftSpeedUnit returns the drift speed unit or the default.
func (c *RunConfig) GetDriftSpeedUnit() string {
	if c.DriftSpeedUnit == nil || *c.DriftSpeedUnit == "" {
		return units.DefaultDriftUnit
	}
	return *c.DriftSpeedUnit
}

// GetExtraDrift returns the bias magnitude or the default.
func (c *RunConfig) GetExtraDrift() float64 {
	if c.ExtraDrift == nil {
		return 0 // default
	}
	return *c.ExtraDrift
}

// GetSameDirection returns the direction policy or the default.
func (c *RunConfig) GetSameDirection() bool {
	if c.SameDirection == nil {
		return false // default
	}
	return *c.SameDirection
}

// GetLogLevel returns the log level or the default.
func (c *RunConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return "info" // default
	}
	return *c.LogLevel
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Resolve validates c and returns the immutable Run.
func (c *RunConfig) Resolve() (Run, error) {
	if err := c.Validate(); err != nil {
		return Run{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return Run{
		Input:          *c.Input,
		Output:         *c.Output,
		Format:         c.GetFormat(),
		DriftSpeed:     *c.DriftSpeed,
		DriftSpeedUnit: c.GetDriftSpeedUnit(),
		DriftBearing:   *c.DriftBearing,
		ExtraDrift:     c.GetExtraDrift(),
		ReferenceT0:    *c.ReferenceT0,
		ReferenceT1:    *c.ReferenceT1,
		SameDirection:  c.GetSameDirection(),
		Plot:           deref(c.Plot),
		RunLog:         deref(c.RunLog),
		LogLevel:       c.GetLogLevel(),
	}, nil
}

// DriftSpeedMPS returns the drift speed converted to metres per second.
func (r Run) DriftSpeedMPS() float64 {
	// Unit was validated by Resolve.
	v, _ := units.ToMetresPerSecond(r.DriftSpeed, r.DriftSpeedUnit)
	return v
}

// Vector returns the drift vector for this run.
func (r Run) Vector() drift.Vector {
	return drift.NewVector(r.DriftBearing, r.DriftSpeedMPS(), r.ExtraDrift)
}

// Reference returns the reference-pass interval for this run.
func (r Run) Reference() drift.PassInterval {
	return drift.PassInterval{T0: r.ReferenceT0, T1: r.ReferenceT1}
}
