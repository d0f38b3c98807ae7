package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// appConfig is the resolved process configuration. Defaults are
// overridden by the config file, which is overridden by explicit flags.
type appConfig struct {
	WasmPath string
	Width    int
	Height   int
	FPS      int
	Watch    bool
	LogLevel string
	LogFile  string
}

func defaultAppConfig() appConfig {
	return appConfig{
		FPS:      30,
		LogLevel: "info",
	}
}

type fileConfig struct {
	Wasm     string `toml:"wasm"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	FPS      int    `toml:"fps"`
	Watch    bool   `toml:"watch"`
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

func loadAppConfig(path string, cfg appConfig) (appConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return appConfig{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("wasm") {
		cfg.WasmPath = strings.TrimSpace(raw.Wasm)
	}
	if meta.IsDefined("width") {
		cfg.Width = raw.Width
	}
	if meta.IsDefined("height") {
		cfg.Height = raw.Height
	}
	if meta.IsDefined("fps") {
		cfg.FPS = raw.FPS
	}
	if meta.IsDefined("watch") {
		cfg.Watch = raw.Watch
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = strings.TrimSpace(raw.LogFile)
	}

	return cfg, cfg.validate()
}

func (c appConfig) validate() error {
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("fps %d out of range [1, 120]", c.FPS)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("negative canvas size %dx%d", c.Width, c.Height)
	}
	return nil
}
