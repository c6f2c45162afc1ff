package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"voicescribe/internal/app/model"
)

type limitsFile struct {
	Defaults model.Limits `yaml:"defaults"`
}

// LoadLimits reads default quota limits from a YAML file. Keys missing from
// the file keep the built-in defaults. An empty path returns the built-in
// defaults.
func LoadLimits(path string) (model.Limits, error) {
	limits := model.DefaultLimits()
	if path == "" {
		return limits, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Limits{}, fmt.Errorf("read limits file: %w", err)
	}

	file := limitsFile{Defaults: limits}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return model.Limits{}, fmt.Errorf("parse limits file %s: %w", path, err)
	}
	if err := validator.New().Struct(file.Defaults); err != nil {
		return model.Limits{}, fmt.Errorf("invalid limits in %s: %w", path, err)
	}
	return file.Defaults, nil
}
