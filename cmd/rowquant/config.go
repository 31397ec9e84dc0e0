package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/s4ayub/rowquant/internal/workerpool"
)

// fileConfig holds the optional defaults read from ~/.rowquant.yaml (or the
// --config path). Numeric fields are pointers so an absent key is
// distinguishable from an explicit zero.
type fileConfig struct {
	Bits        *int64 `yaml:"bits"`
	Compression string `yaml:"compression"`
	Workers     *int64 `yaml:"workers"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".rowquant.yaml")
}

// loadFileConfig reads the defaults file. A missing file is only an error
// when the user pointed at it explicitly with --config.
func loadFileConfig(cmd *cli.Command) (fileConfig, error) {
	path := configFile
	explicit := cmd.IsSet("config")
	if path == "" {
		path = defaultConfigPath()
		if path == "" {
			return fileConfig{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return fileConfig{}, nil
		}

		return fileConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// applyQuantizeConfig fills in defaults for quantize flags the user did not
// set on the command line.
func applyQuantizeConfig(cmd *cli.Command, cfg fileConfig) {
	if cfg.Bits != nil && !cmd.IsSet("bits") {
		bits = *cfg.Bits
	}
	if cfg.Compression != "" && !cmd.IsSet("compression") {
		compression = cfg.Compression
	}
	applyWorkersConfig(cfg)
}

// applyWorkersConfig exports the configured worker count through the pool's
// environment variable so it lands before the lazily created shared pool
// reads it. The environment wins when both are set.
func applyWorkersConfig(cfg fileConfig) {
	if cfg.Workers != nil && *cfg.Workers > 0 && os.Getenv(workerpool.WorkersEnvVar) == "" {
		os.Setenv(workerpool.WorkersEnvVar, strconv.FormatInt(*cfg.Workers, 10))
	}
}
