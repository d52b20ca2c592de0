package config

import (
	"os"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Load reads the yaml config over the defaults, then applies the
// environment overrides. An empty path loads the defaults only.
func Load(configFile string) (*Config, error) {
	config := Default()

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, errors.Wrapf(err, "can not parse %s", configFile)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", configFile)
	}

	return config, nil
}

// applyEnv sets the env-tagged fields of every section that has them.
func applyEnv(config *Config) error {
	targets := []interface{}{&config.Datasource, &config.Server}

	if config.Persistence.Json != nil {
		targets = append(targets, config.Persistence.Json)
	}

	if config.Persistence.Redis != nil {
		targets = append(targets, config.Persistence.Redis)
	}

	if config.Upload.S3 != nil {
		targets = append(targets, config.Upload.S3)
	}

	for _, target := range targets {
		if err := env.Set(target); err != nil {
			return errors.Wrap(err, "can not apply environment variables")
		}
	}

	return nil
}

// LoadDotenv loads the given .env files into the process environment,
// skipping the files that do not exist. Variables already set win.
func LoadDotenv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return errors.Wrapf(err, "can not load %s", file)
		}
	}

	return nil
}
