// Package config loads application configuration: struct defaults, then an optional
// YAML file, then TRAVELML_* environment variables, validated on the way out.
package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/artifact"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/logging"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/model"
)

// Config is the full application configuration.
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Transform TransformConfig `koanf:"transform"`
	Selector  SelectorConfig  `koanf:"selector"`
	Segmenter SegmenterConfig `koanf:"segmenter"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Server    ServerConfig    `koanf:"server"`
	Logging   logging.Config  `koanf:"logging"`
}

// DataConfig describes the training dataset.
type DataConfig struct {
	Path        string   `koanf:"path"`
	Target      string   `koanf:"target" validate:"required"`
	DropColumns []string `koanf:"drop_columns"`
	TestRatio   float64  `koanf:"test_ratio" validate:"gt=0,lt=1"`
	Seed        int64    `koanf:"seed"`
}

// TransformConfig tunes the transformer.
type TransformConfig struct {
	DropFirst bool `koanf:"drop_first"`
}

// SelectorConfig tunes model selection.
type SelectorConfig struct {
	AcceptanceFloor float64  `koanf:"acceptance_floor" validate:"gte=0,lte=1"`
	CVFolds         int      `koanf:"cv_folds" validate:"gte=2"`
	Workers         int      `koanf:"workers" validate:"gte=0"`
	Seed            int64    `koanf:"seed"`
	Families        []string `koanf:"families" validate:"min=1,dive,oneof=logistic_regression decision_tree random_forest gradient_boosting newton_boosting adaboost knn"`
}

// SegmenterConfig tunes segmentation.
type SegmenterConfig struct {
	Candidates []int `koanf:"candidates" validate:"min=1,dive,gte=2"`
	NInit      int   `koanf:"n_init" validate:"gte=1"`
	MaxIter    int   `koanf:"max_iter" validate:"gte=1"`
	Seed       int64 `koanf:"seed"`
	Plots      bool  `koanf:"plots"`
}

// ArtifactsConfig locates persisted artifacts.
type ArtifactsConfig struct {
	Dir   string         `koanf:"dir" validate:"required"`
	Files artifact.Names `koanf:"files"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// Watch reloads artifacts when a training run replaces them.
	Watch bool `koanf:"watch"`
}

func defaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Target:      "ProdTaken",
			DropColumns: []string{"CustomerID"},
			TestRatio:   0.2,
			Seed:        42,
		},
		Transform: TransformConfig{
			DropFirst: true,
		},
		Selector: SelectorConfig{
			AcceptanceFloor: 0.6,
			CVFolds:         3,
			Workers:         0, // GOMAXPROCS
			Seed:            42,
			Families:        append([]string(nil), model.DefaultFamilies...),
		},
		Segmenter: SegmenterConfig{
			Candidates: []int{3, 4, 5, 6},
			NInit:      10,
			MaxIter:    300,
			Seed:       42,
			Plots:      true,
		},
		Artifacts: ArtifactsConfig{
			Dir:   "artifacts",
			Files: artifact.DefaultNames(),
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Watch:           true,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config { return defaultConfig() }

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every section.
func (c *Config) Validate() error {
	return validate.Struct(c)
}
