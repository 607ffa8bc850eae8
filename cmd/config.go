package cmd

import (
	"log/slog"
	"os"

	"github.com/cottand/tyck/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration of a run
type Config struct {
	Log struct {
		Level    string   `yaml:"level"`
		Sections []string `yaml:"sections"`
	} `yaml:"log"`
	// VariancesComputed makes relations use declared variances instead of
	// treating every parameter as invariant
	VariancesComputed bool `yaml:"variancesComputed"`
}

// LoadConfig reads the configuration at path; an empty path is the default configuration
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read config")
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse config %s", path)
	}
	return cfg, nil
}

// Apply configures logging. An empty level leaves the current one.
func (c *Config) Apply() error {
	if c.Log.Level != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return errors.Wrapf(err, "invalid log level %q", c.Log.Level)
		}
		log.SetLevel(level)
	}
	if c.Log.Sections != nil {
		log.EnableSections(c.Log.Sections...)
	}
	return nil
}
