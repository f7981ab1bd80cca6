package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config is the configuration file of the tool. Flags are added on top of it.
type Config struct {
	Images []ImageConfig `yaml:"images"`
	// NoMBR mounts images that start with the boot sector instead of a partition table.
	NoMBR bool `yaml:"noMBR"`
	// Capacity is the number of volumes which can be mounted at once.
	Capacity int    `yaml:"capacity"`
	LogLevel string `yaml:"logLevel"`
}

// ImageConfig is one image mounted under a single character label.
type ImageConfig struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

func readConfig(fs afero.Fs, path string) (Config, error) {
	var config Config

	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return config, fmt.Errorf("failed to read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return config, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	for _, img := range config.Images {
		if err := img.validate(); err != nil {
			return config, fmt.Errorf("%q: %w", path, err)
		}
	}
	return config, nil
}

// parseImageFlag parses the label=path form of the --image flag.
func parseImageFlag(value string) (ImageConfig, error) {
	label, path, ok := strings.Cut(value, "=")
	if !ok {
		return ImageConfig{}, fmt.Errorf("image %q must have the form LABEL=PATH", value)
	}

	img := ImageConfig{Label: label, Path: path}
	return img, img.validate()
}

func (img ImageConfig) validate() error {
	if len(img.Label) != 1 || img.Label == "/" || img.Label == ":" {
		return fmt.Errorf("image label %q must be a single character", img.Label)
	}
	if img.Path == "" {
		return fmt.Errorf("image %q has no path", img.Label)
	}
	return nil
}
