package kanjidrill

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults used when no settings file exists.
const (
	DefaultCellSize  = 20
	DefaultPageWidth = 190
	DefaultDPI       = 150
)

// Settings holds every user adjustable input of the pipeline.
// Sizes are expressed in millimetres.
type Settings struct {
	Text      string    `yaml:"text,omitempty"`
	CellSize  float64   `yaml:"cell_size"`
	PageWidth float64   `yaml:"page_width"`
	Dedupe    bool      `yaml:"dedupe"`
	Sort      SortOrder `yaml:"sort"`
	DPI       float64   `yaml:"dpi"`
	Normalize bool      `yaml:"normalize"`
}

// DefaultSettings returns the settings used on first start.
func DefaultSettings() Settings {
	return Settings{
		CellSize:  DefaultCellSize,
		PageWidth: DefaultPageWidth,
		Dedupe:    true,
		Sort:      SortNone,
		DPI:       DefaultDPI,
	}
}

// Validate clamps the cell size into its valid range and checks the other fields.
func (s *Settings) Validate() error {
	s.CellSize = ClampCellSize(s.CellSize)
	if s.PageWidth <= 0 {
		return fmt.Errorf("page width must be positive, got %v", s.PageWidth)
	}
	if s.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %v", s.DPI)
	}
	order, err := ParseSortOrder(string(s.Sort))
	if err != nil {
		return err
	}
	s.Sort = order
	return nil
}

// ExtractOptions returns the extraction options matching the settings.
func (s Settings) ExtractOptions() ExtractOptions {
	return ExtractOptions{Dedupe: s.Dedupe, Normalize: s.Normalize}
}

// DefaultSettingsPath returns the settings file location in the user config directory.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "kanjidrill", "settings.yaml"), nil
}

// LoadSettings reads the settings file at path. A missing file yields the defaults.
// Fields absent from the file keep their default value.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("unable to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("unable to decode settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("invalid settings %s: %w", path, err)
	}
	return s, nil
}

// Save writes the settings to path, creating the parent directories if needed.
func (s Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("unable to create settings directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("unable to encode settings: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
