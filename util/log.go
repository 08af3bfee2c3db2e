// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util carries the ambient pieces shared by the tn3270 packages: the
// leveled logger and the TOML configuration.
package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"log/slog"
)

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var Logger *myLogger
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

type myLogger struct {
	*slog.Logger
	addSource bool
	logLevel  *slog.LevelVar
}

func init() {
	// default logger write to stderr
	Logger = new(myLogger)
	Logger.logLevel = new(slog.LevelVar)
	Logger.SetLevel(slog.LevelInfo)
	Logger.AddSource(false)
	Logger.SetOutput(os.Stderr)
}

func (l *myLogger) SetLevel(v slog.Level) {
	l.logLevel.Set(v)
}

func (l *myLogger) Level() slog.Level {
	return l.logLevel.Level()
}

func (l *myLogger) AddSource(add bool) {
	l.addSource = add
}

// SetOutput rebuilds the logger on w, keeping the level variable so a later
// SetLevel still takes effect. It also becomes the slog default.
func (l *myLogger) SetOutput(w io.Writer) {
	l.Logger = slog.New(slog.NewTextHandler(w, handlerOptions(l.addSource, l.logLevel)))
	slog.SetDefault(l.Logger)
}

// CreateLogger rebuilds the logger on w with a fixed level. Tests use it to
// silence or capture the output.
func (l *myLogger) CreateLogger(w io.Writer, source bool, level slog.Level) {
	l.Logger = slog.New(slog.NewTextHandler(w, handlerOptions(source, level)))
}

func (l *myLogger) Trace(msg string, args ...any) {
	l.Logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Fatal logs at FATAL level and exits the process.
func (l *myLogger) Fatal(msg string, args ...any) {
	l.Logger.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}

func handlerOptions(source bool, level slog.Leveler) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		AddSource: source,
		Level:     level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				levelLabel, exists := levelNames[level]
				if !exists {
					levelLabel = level.String()
				}

				a.Value = slog.StringValue(levelLabel)
			}

			return a
		},
	}
}

// ParseLevel turns a level name from the command line or the configuration
// file into a slog level. TRACE and FATAL are accepted besides the slog names.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return LevelTrace, nil
	case "FATAL":
		return LevelFatal, nil
	case "":
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrLogLevel, name)
	}
	return level, nil
}
