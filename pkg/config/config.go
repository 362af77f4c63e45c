// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/user/clipset/pkg/dataset"
)

// Config represents the full configuration for clipset.
type Config struct {
	// Corpus
	MetaPath      string `yaml:"meta_path"`
	DataDir       string `yaml:"data_dir"`
	Subsample     int    `yaml:"subsample"`
	SubsampleSeed int64  `yaml:"subsample_seed"`

	// Clip sampling
	VideoLength    int     `yaml:"video_length"`
	FrameStride    int     `yaml:"frame_stride"`
	FrameStrideMin int     `yaml:"frame_stride_min"`
	RandomStride   bool    `yaml:"random_stride"`
	FixedFPS       float64 `yaml:"fixed_fps"`
	FPSMax         int     `yaml:"fps_max"`
	MaxAttempts    int     `yaml:"max_attempts"`
	Seed           int64   `yaml:"seed"`

	// Resolution
	Height            int    `yaml:"height"`
	Width             int    `yaml:"width"`
	SpatialTransform  string `yaml:"spatial_transform"`
	CropHeight        int    `yaml:"crop_height"`
	CropWidth         int    `yaml:"crop_width"`
	LoadRawResolution bool   `yaml:"load_raw_resolution"`
	DecodeWidth       int    `yaml:"decode_width"`
	DecodeHeight      int    `yaml:"decode_height"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		VideoLength:    16,
		FrameStride:    1,
		FrameStrideMin: 1,

		Height:           320,
		Width:            512,
		SpatialTransform: "resize_center_crop",
		DecodeWidth:      dataset.DefaultDecodeWidth,
		DecodeHeight:     dataset.DefaultDecodeHeight,

		DebugDir: "./debug",
	}
}

// Load reads a YAML config file and merges it over the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ToDatasetOptions converts the config into dataset construction options.
func (c Config) ToDatasetOptions() dataset.Options {
	return dataset.Options{
		MetaPath:          c.MetaPath,
		DataDir:           c.DataDir,
		Subsample:         c.Subsample,
		SubsampleSeed:     c.SubsampleSeed,
		VideoLength:       c.VideoLength,
		Height:            c.Height,
		Width:             c.Width,
		FrameStride:       c.FrameStride,
		FrameStrideMin:    c.FrameStrideMin,
		RandomStride:      c.RandomStride,
		SpatialTransform:  c.SpatialTransform,
		CropHeight:        c.CropHeight,
		CropWidth:         c.CropWidth,
		FPSMax:            c.FPSMax,
		LoadRawResolution: c.LoadRawResolution,
		DecodeWidth:       c.DecodeWidth,
		DecodeHeight:      c.DecodeHeight,
		FixedFPS:          c.FixedFPS,
		MaxAttempts:       c.MaxAttempts,
		Seed:              c.Seed,
	}
}
