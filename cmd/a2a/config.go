// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// URLEnvVar is the environment variable holding the agent base URL.
	URLEnvVar = "A2A_URL"
	// TokenEnvVar is the environment variable holding the bearer token.
	TokenEnvVar = "A2A_TOKEN"

	defaultTimeout = 30 * time.Second
)

// Config is the content of the CLI config file.
//
//	url: https://agent.example.com/a2a
//	token: ${SUMMARIZER_TOKEN}
//	timeout: 30s
//	retries: 2
//	headers:
//	  X-Tenant: acme
//	log:
//	  level: info
//	  format: text
//	agents:
//	  translator:
//	    url: https://translate.example.com/a2a
//
// Values may reference environment variables as $VAR or ${VAR}.
type Config struct {
	AgentConfig `yaml:",inline"`

	Timeout time.Duration          `yaml:"timeout"`
	Retries int                    `yaml:"retries"`
	Log     LogConfig              `yaml:"log"`
	Agents  map[string]AgentConfig `yaml:"agents"`
}

// AgentConfig locates one agent.
type AgentConfig struct {
	URL     string            `yaml:"url"`
	Token   string            `yaml:"token"`
	Headers map[string]string `yaml:"headers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// defaultConfigPath returns ~/.a2a/config.yaml, or "" if there is no home directory.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".a2a", "config.yaml")
}

// loadDotEnv loads .env.local and .env from the working directory. Variables
// already set in the environment win.
func loadDotEnv() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// loadConfig reads the config file at path. A missing file yields an empty
// config unless required is set.
func loadConfig(path string, required bool) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// agent returns the agent config named name, or the top-level agent if name is empty.
func (c *Config) agent(name string) (AgentConfig, error) {
	if name == "" {
		return c.AgentConfig, nil
	}
	a, ok := c.Agents[name]
	if !ok {
		names := make([]string, 0, len(c.Agents))
		for n := range c.Agents {
			names = append(names, n)
		}
		sort.Strings(names)
		return AgentConfig{}, fmt.Errorf("unknown agent %q (configured: %s)", name, strings.Join(names, ", "))
	}
	return a, nil
}

// settings are the effective options of one invocation.
type settings struct {
	AgentConfig
	Timeout   time.Duration
	Retries   int
	LogLevel  string
	LogFormat string
}

// resolve merges flags over the config file. Environment variables reach the
// flags through kong, so the precedence is flags, then environment, then file.
func resolve(cli *CLI, cfg *Config) (*settings, error) {
	agent, err := cfg.agent(cli.Agent)
	if err != nil {
		return nil, err
	}

	s := &settings{
		AgentConfig: agent,
		Timeout:     cfg.Timeout,
		Retries:     cfg.Retries,
		LogLevel:    cfg.Log.Level,
		LogFormat:   cfg.Log.Format,
	}
	s.Headers = make(map[string]string)
	for k, v := range cfg.Headers {
		s.Headers[k] = v
	}
	for k, v := range agent.Headers {
		s.Headers[k] = v
	}

	if cli.URL != "" {
		s.URL = cli.URL
	}
	if cli.Token != "" {
		s.Token = cli.Token
	}
	for k, v := range cli.Header {
		s.Headers[k] = v
	}
	if cli.Timeout != 0 {
		s.Timeout = cli.Timeout
	}
	if cli.Retries != 0 {
		s.Retries = cli.Retries
	}
	if s.Timeout == 0 {
		s.Timeout = defaultTimeout
	}
	if cli.LogLevel != "" {
		s.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		s.LogFormat = cli.LogFormat
	}
	return s, nil
}
