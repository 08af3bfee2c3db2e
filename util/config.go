// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	ErrLogLevel = errors.New("unknown log level")
	ErrConfig   = errors.New("load config")
)

// Config holds the settings of the replay tool. Values missing from the file
// keep their defaults.
type Config struct {
	Model    string     // terminal model, such as 3278-2
	LogLevel slog.Level // logger level
	Trace    string     // inbound trace file, "-" for stdin
	Snapshot string     // snapshot output file, empty for none
	Compress bool       // compress the snapshot with zlib
	APL      bool       // draw APL line graphics with box characters
}

type fileConfig struct {
	Model    string `toml:"model"`
	LogLevel string `toml:"log_level"`
	Trace    string `toml:"trace"`
	Snapshot string `toml:"snapshot"`
	Compress bool   `toml:"compress"`
	APL      bool   `toml:"apl"`
}

func DefaultConfig() Config {
	return Config{
		Model:    "3278-2",
		LogLevel: slog.LevelInfo,
		Trace:    "-",
		APL:      true,
	}
}

// LoadConfig reads the TOML file at path over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfig, path, err)
	}

	if meta.IsDefined("model") {
		if m := strings.TrimSpace(raw.Model); m != "" {
			cfg.Model = m
		}
	}

	if meta.IsDefined("log_level") {
		level, err := ParseLevel(raw.LogLevel)
		if err != nil {
			return Config{}, fmt.Errorf("%w %s: %w", ErrConfig, path, err)
		}
		cfg.LogLevel = level
	}

	if meta.IsDefined("trace") {
		cfg.Trace = strings.TrimSpace(raw.Trace)
	}

	if meta.IsDefined("snapshot") {
		cfg.Snapshot = strings.TrimSpace(raw.Snapshot)
	}

	if meta.IsDefined("compress") {
		cfg.Compress = raw.Compress
	}

	if meta.IsDefined("apl") {
		cfg.APL = raw.APL
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		Logger.Warn("unknown config keys", "file", path, "keys", undecoded)
	}
	return cfg, nil
}
