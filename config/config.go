// Copyright 2022 The OpenZipkin Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package config loads the settings of a B3 propagation engine from the
environment or a YAML document and wires the engine with its logger.
*/
package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	b3 "github.com/openzipkin/b3-go"
	"github.com/openzipkin/b3-go/logging"
)

// EnvPrefix prefixes every environment variable read by FromEnv, e.g.
// B3_DEBUG.
const EnvPrefix = "B3"

// Supported log formats.
const (
	FormatSleuth = "sleuth"
	FormatJSON   = "json"
	FormatText   = "text"
)

// Config errors
var (
	ErrInvalidLogFormat = errors.New("invalid log format")
	ErrInvalidLogLevel  = errors.New("invalid log level")
)

// Config holds the engine and logging configuration.
type Config struct {
	AppName   string `envconfig:"APP_NAME" yaml:"appName"`
	Debug     bool   `envconfig:"DEBUG" default:"false" yaml:"debug"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" yaml:"logLevel"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"sleuth" yaml:"logFormat"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: FormatSleuth,
	}
}

// FromEnv loads the configuration from B3_ prefixed environment variables.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromYAML loads the configuration from a YAML document. Keys left out keep
// their default value; an empty document yields the defaults.
func FromYAML(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports whether the log level and format are supported.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case FormatSleuth, FormatJSON, FormatText:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}
	return nil
}

// Setup returns an engine configured by cfg together with the logger it
// writes to. The logger's formatter annotates every entry logged with a
// request context with the trace information of that request.
func Setup(cfg *Config, w io.Writer) (*b3.Engine, *logrus.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, _ := logrus.ParseLevel(cfg.LogLevel)

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)

	engine, err := b3.NewEngine(
		b3.WithAppName(cfg.AppName),
		b3.WithDebug(cfg.Debug),
		b3.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create engine: %w", err)
	}

	switch cfg.LogFormat {
	case FormatSleuth:
		logger.SetFormatter(logging.NewSleuthFormatter(engine))
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.AddHook(logging.NewTraceHook(engine))
	case FormatText:
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true})
		logger.AddHook(logging.NewTraceHook(engine))
	}

	return engine, logger, nil
}
