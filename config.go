package metaballs

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the construction-time parameters of a metaball simulation.
// All fields are validated eagerly by the constructors that consume them.
type Config struct {
	// Isolevel is the field threshold at which the surface is extracted.
	Isolevel float64 `yaml:"isolevel"`
	// MinRadius and MaxRadius bound the randomized ball radii.
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`
	// GridCellWidth is the side length of a single sample cell.
	GridCellWidth float64 `yaml:"grid_cell_width"`
	// GridWidth is the side length of the cubic domain. It must equal
	// GridCellWidth*GridRes.
	GridWidth float64 `yaml:"grid_width"`
	// GridRes is the number of cells per axis.
	GridRes int `yaml:"grid_res"`
	// MaxSpeed bounds the randomized initial ball velocity per axis.
	MaxSpeed float64 `yaml:"max_speed"`
	// NumMetaballs is the fixed ball population size.
	NumMetaballs int `yaml:"num_metaballs"`
	// VisualDebug enables the visualization collaborator hooks. It has no
	// effect on the extracted surface.
	VisualDebug bool `yaml:"visual_debug"`
}

// gridWidthTol bounds the float mismatch tolerated between GridWidth and
// GridCellWidth*GridRes, which arrive as independently configured values.
const gridWidthTol = 1e-9

// DefaultConfig returns the embedded default configuration.
func DefaultConfig() Config {
	var c Config
	if err := yaml.Unmarshal(defaultsYAML, &c); err != nil {
		panic("metaballs: embedded defaults are malformed: " + err.Error())
	}
	return c
}

// LoadConfig reads a YAML configuration file. Fields absent from the file
// keep their default values. The result is validated before being returned.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return c, nil
}

// Validate returns a descriptive error for the first constraint violation
// found, or nil if the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.NumMetaballs <= 0:
		return fmt.Errorf("num_metaballs must be positive, got %d", c.NumMetaballs)
	case c.MinRadius <= 0:
		return fmt.Errorf("min_radius must be positive, got %g", c.MinRadius)
	case c.MaxRadius < c.MinRadius:
		return fmt.Errorf("max_radius %g smaller than min_radius %g", c.MaxRadius, c.MinRadius)
	case c.GridCellWidth <= 0:
		return fmt.Errorf("grid_cell_width must be positive, got %g", c.GridCellWidth)
	case c.GridWidth <= 0:
		return fmt.Errorf("grid_width must be positive, got %g", c.GridWidth)
	case c.GridRes <= 0:
		return fmt.Errorf("grid_res must be positive, got %d", c.GridRes)
	case c.MaxSpeed < 0:
		return fmt.Errorf("max_speed must be non-negative, got %g", c.MaxSpeed)
	}
	if math.Abs(c.GridWidth-c.GridCellWidth*float64(c.GridRes)) > gridWidthTol {
		return fmt.Errorf("grid_width %g != grid_cell_width %g * grid_res %d",
			c.GridWidth, c.GridCellWidth, c.GridRes)
	}
	return nil
}
