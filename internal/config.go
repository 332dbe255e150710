package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type ServiceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RunConfig struct {
	Delay         time.Duration `yaml:"delay"`
	MaxIterations int           `yaml:"max_iterations"`
	Tolerance     float64       `yaml:"tolerance,omitempty"`
}

type ViewportConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type OutputConfig struct {
	Chart string `yaml:"chart"`
}

type Config struct {
	Service    ServiceConfig  `yaml:"service"`
	Clusters   int            `yaml:"clusters"`
	InitMethod string         `yaml:"init_method"`
	Run        RunConfig      `yaml:"run"`
	Viewport   ViewportConfig `yaml:"viewport"`
	Log        LogConfig      `yaml:"log"`
	Output     OutputConfig   `yaml:"output"`
}

func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:     DefaultServiceURL,
			Timeout: 10 * time.Second,
		},
		Clusters:   DefaultClusters,
		InitMethod: MethodRandom,
		Run: RunConfig{
			Delay:         DefaultStepDelay,
			MaxIterations: DefaultMaxIterations,
		},
		Viewport: ViewportConfig{Width: DefaultWidth, Height: DefaultHeight},
		Log:      LogConfig{Level: "info"},
		Output:   OutputConfig{Chart: "lloyd.html"},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Clusters < 1 {
		return fmt.Errorf("config: clusters %d: %w", c.Clusters, ErrInvalidK)
	}
	if !validMethod(c.InitMethod) {
		return fmt.Errorf("config: init_method %q: %w", c.InitMethod, ErrUnknownMethod)
	}
	if c.Run.Delay < 0 {
		return fmt.Errorf("config: run.delay must not be negative")
	}
	if c.Run.MaxIterations < 0 {
		return fmt.Errorf("config: run.max_iterations must not be negative")
	}
	if c.Run.Tolerance < 0 {
		return fmt.Errorf("config: run.tolerance must not be negative")
	}
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("config: viewport must have a positive size")
	}
	return nil
}

func (c *Config) RunOptions() RunOptions {
	return RunOptions{
		Delay:         c.Run.Delay,
		MaxIterations: c.Run.MaxIterations,
		Tolerance:     c.Run.Tolerance,
	}
}

func (c *Config) ViewportSize() Viewport {
	return Viewport{Width: c.Viewport.Width, Height: c.Viewport.Height}
}
