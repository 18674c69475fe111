package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds baselinespectre configuration loaded from .baselinespectre.yaml.
type Config struct {
	Files        []string `yaml:"files"`
	BaselineYear int      `yaml:"baseline_year"`
	AllowNewly   bool     `yaml:"allow_newly"`
	AllowLimited bool     `yaml:"allow_limited"`
	FailOnError  bool     `yaml:"fail_on_error"`
	Format       string   `yaml:"format"`
	Output       string   `yaml:"output"`
	SARIFFile    string   `yaml:"sarif_file"`
	Workers      int      `yaml:"workers"`
	Timeout      string   `yaml:"timeout"`
	FeaturesFile string   `yaml:"features_file"`
	Exclude      []string `yaml:"exclude"`
	NoGitignore  bool     `yaml:"no_gitignore"`
	Upload       Upload   `yaml:"upload"`
}

// Upload configures publishing reports to S3.
type Upload struct {
	URI     string `yaml:"uri"`
	Profile string `yaml:"profile"`
	Region  string `yaml:"region"`
}

// TimeoutDuration parses the timeout string as a duration.
func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Load searches for .baselinespectre.yaml or .baselinespectre.yml in the given
// directory and returns the parsed config. Returns an empty Config if no file
// is found.
func Load(dir string) (Config, error) {
	candidates := []string{
		filepath.Join(dir, ".baselinespectre.yaml"),
		filepath.Join(dir, ".baselinespectre.yml"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Config{}, nil
}
