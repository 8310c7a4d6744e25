// Package config loads layout configuration files.
//
// A configuration file names the algorithm to run and carries one optional
// section per strategy. TOML and YAML are supported; the format is picked
// from the file extension:
//
//	algorithm = "layered"
//
//	[layered]
//	orientation = "vertical"
//	provider = "dfs"
//	reducer = "greedy"
//
// Sections for strategies other than the selected one are validated but
// otherwise ignored, so one file can serve several runs that differ only in
// the --algorithm flag. A composite run lists its steps:
//
//	algorithm: composite
//	composite: [tree, shift]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	errs "github.com/matzehuels/stacklayout/pkg/errors"
)

// validate is the shared validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("algorithm", func(fl validator.FieldLevel) bool {
		_, ok := lookup(fl.Field().String())
		return ok
	})
}

// =============================================================================
// File Format
// =============================================================================

// File is the content of a configuration file.
type File struct {
	Algorithm string   `toml:"algorithm" yaml:"algorithm" validate:"omitempty,algorithm"`
	Composite []string `toml:"composite" yaml:"composite" validate:"omitempty,max=16,dive,algorithm,ne=composite"`

	Grid      GridSection      `toml:"grid" yaml:"grid"`
	Box       BoxSection       `toml:"box" yaml:"box"`
	Shift     ShiftSection     `toml:"shift" yaml:"shift"`
	Tree      TreeSection      `toml:"tree" yaml:"tree"`
	Radial    RadialSection    `toml:"radial" yaml:"radial"`
	SpaceTree SpaceTreeSection `toml:"spacetree" yaml:"spacetree"`
	Force     ForceSection     `toml:"force" yaml:"force"`
	Layered   LayeredSection   `toml:"layered" yaml:"layered"`
}

// GridSection configures the grid strategy. Box reuses it for its cells.
type GridSection struct {
	AspectRatio float64 `toml:"aspect_ratio" yaml:"aspect_ratio" validate:"gte=0"`
	RowPadding  float64 `toml:"row_padding" yaml:"row_padding" validate:"gte=0"`
	Resize      bool    `toml:"resize" yaml:"resize"`
}

// BoxSection configures the box strategy.
type BoxSection struct {
	Orientation string `toml:"orientation" yaml:"orientation" validate:"omitempty,oneof=horizontal vertical"`
}

// ShiftSection configures the horizontal-shift strategy.
type ShiftSection struct {
	Tolerance  float64 `toml:"tolerance" yaml:"tolerance" validate:"gte=0"`
	Gap        float64 `toml:"gap" yaml:"gap" validate:"gte=0"`
	RowSpacing float64 `toml:"row_spacing" yaml:"row_spacing" validate:"gte=0"`
}

// TreeSection configures the tree strategy. LeafSpacing and LayerSpacing
// must be set together; either alone is ignored.
type TreeSection struct {
	Direction    string  `toml:"direction" yaml:"direction" validate:"omitempty,oneof=top-down bottom-up left-right right-left"`
	LeafSpacing  float64 `toml:"leaf_spacing" yaml:"leaf_spacing" validate:"gte=0"`
	LayerSpacing float64 `toml:"layer_spacing" yaml:"layer_spacing" validate:"gte=0"`
	Resize       bool    `toml:"resize" yaml:"resize"`
}

// RadialSection configures the radial strategy. Angles are in degrees.
type RadialSection struct {
	StartAngle float64 `toml:"start_angle" yaml:"start_angle" validate:"gte=-360,lte=360"`
	EndAngle   float64 `toml:"end_angle" yaml:"end_angle" validate:"gte=-360,lte=360"`
	Resize     bool    `toml:"resize" yaml:"resize"`
	SkipFit    bool    `toml:"skip_fit" yaml:"skip_fit"`
}

// SpaceTreeSection configures the space-constrained tree.
type SpaceTreeSection struct {
	Direction string  `toml:"direction" yaml:"direction" validate:"omitempty,oneof=top-down bottom-up left-right right-left"`
	LeafGap   float64 `toml:"leaf_gap" yaml:"leaf_gap" validate:"gte=0"`
	BranchGap float64 `toml:"branch_gap" yaml:"branch_gap" validate:"gte=0"`
	LayerGap  float64 `toml:"layer_gap" yaml:"layer_gap" validate:"gte=0"`
}

// ForceSection configures the force-directed strategy. MaxDuration uses
// Go duration syntax ("5s", "750ms").
type ForceSection struct {
	Iterations  int     `toml:"iterations" yaml:"iterations" validate:"gte=0,lte=1000000"`
	MaxDuration string  `toml:"max_duration" yaml:"max_duration"`
	RandomStart bool    `toml:"random_start" yaml:"random_start"`
	Move        float64 `toml:"move" yaml:"move" validate:"gte=0"`
	Strain      float64 `toml:"strain" yaml:"strain" validate:"gte=0"`
	Length      float64 `toml:"length" yaml:"length" validate:"gte=0"`
	Gravitation float64 `toml:"gravitation" yaml:"gravitation" validate:"gte=0"`
	MinDistance float64 `toml:"min_distance" yaml:"min_distance" validate:"gte=0"`
	Seed        uint64  `toml:"seed" yaml:"seed"`
}

// LayeredSection configures the layered strategy. Layers pins entities to
// layers and requires the dfs provider.
type LayeredSection struct {
	Orientation string         `toml:"orientation" yaml:"orientation" validate:"omitempty,oneof=horizontal vertical"`
	Width       float64        `toml:"width" yaml:"width" validate:"gte=0"`
	Height      float64        `toml:"height" yaml:"height" validate:"gte=0"`
	Provider    string         `toml:"provider" yaml:"provider" validate:"omitempty,oneof=simple dfs"`
	Reducer     string         `toml:"reducer" yaml:"reducer" validate:"omitempty,oneof=barycentric split greedy"`
	MaxLayers   int            `toml:"max_layers" yaml:"max_layers" validate:"gte=0"`
	Sweeps      int            `toml:"sweeps" yaml:"sweeps" validate:"gte=0,lte=100000"`
	Seed        uint64         `toml:"seed" yaml:"seed"`
	Layers      map[string]int `toml:"layers" yaml:"layers" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
}

// =============================================================================
// Loading
// =============================================================================

// Format selects the encoding of a configuration file.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatFromPath picks the format from a file extension (.toml, .yaml, .yml).
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, errs.New(errs.ErrCodeInvalidConfig, "unsupported config file extension %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*File, error) {
	if err := errs.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, f)
}

// Parse decodes and validates configuration data. Unknown keys are rejected.
func Parse(data []byte, f Format) (*File, error) {
	var file File
	switch f {
	case FormatTOML:
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "decode yaml")
		}
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported config format %d", int(f))
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks the struct tags and the cross-field rules.
func (f *File) Validate() error {
	if f == nil {
		return errs.InvalidConfig("config cannot be nil")
	}
	if err := validate.Struct(f); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, formatValidationError(err), "invalid config")
	}
	if f.Algorithm == "composite" && len(f.Composite) == 0 {
		return errs.InvalidConfig("composite: at least one step is required")
	}
	if f.Force.MaxDuration != "" {
		d, err := time.ParseDuration(f.Force.MaxDuration)
		if err != nil || d < 0 {
			return errs.InvalidConfig("force.max_duration: invalid duration %q", f.Force.MaxDuration)
		}
	}
	if len(f.Layered.Layers) > 0 && f.Layered.Provider != "dfs" {
		return errs.InvalidConfig("layered.layers: pinned layers require the dfs provider")
	}
	return nil
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Report the first failure only.
	for _, e := range validationErrs {
		field := e.Namespace()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "lte", "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s], got %q", field, param, e.Value())
		case "algorithm":
			return fmt.Errorf("%s: unknown algorithm %q", field, e.Value())
		case "ne":
			return fmt.Errorf("%s: %q is not allowed here", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
