package anytrain

import (
	"errors"
	"fmt"
	"os"

	"github.com/unixpickle/essentials"
	"gopkg.in/yaml.v3"
)

// Schedule is a step-decay learning rate schedule.
type Schedule struct {
	LR       float64 `yaml:"lr"`
	Gamma    float64 `yaml:"gamma"`
	Interval int     `yaml:"interval"`
	Until    int     `yaml:"until"`
}

// RayConfig determines how many pixels are rendered per
// training step.
type RayConfig struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// NovelViewConfig configures the spiral of novel views
// rendered after training.
type NovelViewConfig struct {
	Frames     int     `yaml:"frames"`
	Circles    int     `yaml:"circles"`
	FocusDepth float64 `yaml:"focus_depth"`
	Ratio      int     `yaml:"ratio"`
	FPS        float64 `yaml:"fps"`
	DepthScale float64 `yaml:"depth_scale"`
}

// Config stores every setting of a training run.
type Config struct {
	Scene    string `yaml:"scene"`
	ImageDir string `yaml:"image_dir"`
	OutDir   string `yaml:"out_dir"`

	// Images are resized to Width x Height unless either
	// one is 0.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	Epochs       int `yaml:"epochs"`
	EvalInterval int `yaml:"eval_interval"`

	Rays         RayConfig `yaml:"rays"`
	Samples      int       `yaml:"samples"`
	Near         float64   `yaml:"near"`
	Far          float64   `yaml:"far"`
	PosLevels    int       `yaml:"pos_levels"`
	DirLevels    int       `yaml:"dir_levels"`
	Hidden       int       `yaml:"hidden"`
	DensityNoise float64   `yaml:"density_noise"`
	ChunkRows    int       `yaml:"chunk_rows"`

	PoseInit         float64 `yaml:"pose_init"`
	LearnFocal       bool    `yaml:"learn_focal"`
	LearnRotation    bool    `yaml:"learn_rotation"`
	LearnTranslation bool    `yaml:"learn_translation"`

	// Optimizer is one of "adam", "rmsprop" or "momentum".
	Optimizer     string   `yaml:"optimizer"`
	FieldSchedule Schedule `yaml:"field_schedule"`
	FocalSchedule Schedule `yaml:"focal_schedule"`
	PoseSchedule  Schedule `yaml:"pose_schedule"`

	NovelViews NovelViewConfig `yaml:"novel_views"`

	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() *Config {
	return &Config{
		Scene:        "scene",
		ImageDir:     "images",
		OutDir:       "results",
		Epochs:       10000,
		EvalInterval: 50,
		Rays:         RayConfig{Rows: 32, Cols: 32},
		Samples:      128,
		Near:         0,
		Far:          1,
		PosLevels:    10,
		DirLevels:    4,
		Hidden:       128,
		ChunkRows:    10,

		LearnFocal:       true,
		LearnRotation:    true,
		LearnTranslation: true,

		Optimizer:     "adam",
		FieldSchedule: Schedule{LR: 1e-3, Gamma: 0.9954, Interval: 10, Until: 10000},
		FocalSchedule: Schedule{LR: 1e-3, Gamma: 0.9, Interval: 100, Until: 10000},
		PoseSchedule:  Schedule{LR: 1e-3, Gamma: 0.9, Interval: 100, Until: 10000},

		NovelViews: NovelViewConfig{
			Frames:     30,
			Circles:    1,
			FocusDepth: 3.5,
			Ratio:      1,
			FPS:        30,
			DepthScale: 200.0 / 255,
		},

		Seed: 1,
	}
}

// LoadConfig reads a YAML file on top of the default
// settings and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, essentials.AddCtx("load config", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, essentials.AddCtx("load config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, essentials.AddCtx("load config", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return essentials.AddCtx("save config", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return essentials.AddCtx("save config", err)
	}
	return nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch {
	case c.Scene == "":
		return errors.New("scene name is empty")
	case (c.Width == 0) != (c.Height == 0) || c.Width < 0 || c.Height < 0:
		return fmt.Errorf("invalid image size %dx%d", c.Width, c.Height)
	case c.Epochs < 0 || c.EvalInterval < 0:
		return fmt.Errorf("invalid epochs (%d) or eval interval (%d)", c.Epochs, c.EvalInterval)
	case c.Rays.Rows <= 0 || c.Rays.Cols <= 0:
		return fmt.Errorf("invalid ray grid %dx%d", c.Rays.Rows, c.Rays.Cols)
	case c.Samples <= 0:
		return fmt.Errorf("invalid sample count: %d", c.Samples)
	case !(c.Near < c.Far):
		return fmt.Errorf("near (%f) must be less than far (%f)", c.Near, c.Far)
	case c.PosLevels < 0 || c.DirLevels < 0:
		return fmt.Errorf("invalid encoding levels %d, %d", c.PosLevels, c.DirLevels)
	case c.Hidden < 2:
		return fmt.Errorf("invalid hidden size: %d", c.Hidden)
	case c.DensityNoise < 0:
		return fmt.Errorf("invalid density noise: %f", c.DensityNoise)
	case c.ChunkRows <= 0:
		return fmt.Errorf("invalid chunk rows: %d", c.ChunkRows)
	case c.Optimizer != "adam" && c.Optimizer != "rmsprop" && c.Optimizer != "momentum":
		return fmt.Errorf("unknown optimizer: %s", c.Optimizer)
	case c.NovelViews.Ratio <= 0 || c.NovelViews.Frames < 0 || c.NovelViews.FPS <= 0:
		return errors.New("invalid novel view settings")
	}
	for _, s := range []Schedule{c.FieldSchedule, c.FocalSchedule, c.PoseSchedule} {
		if s.LR <= 0 || s.Gamma <= 0 || s.Interval < 0 || s.Until < 0 {
			return fmt.Errorf("invalid schedule: %+v", s)
		}
	}
	return nil
}
