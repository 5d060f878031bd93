// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelCritical is reported for failures that end the invocation.
// It sits above slog.LevelError so "critical" filters out regular errors.
const LevelCritical = slog.Level(12)

// EnvLogLevel is the environment variable consulted when no explicit level is given.
const EnvLogLevel = "LOG_LEVEL"

// ParseLogLevel converts a level name to a slog.Level.
// Accepted names (case-insensitive): debug, info, warn, warning, error, critical.
// Unknown or empty values map to slog.LevelInfo.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return slog.LevelInfo
	}
}

// IsValidLogLevel reports whether level is one of the accepted names.
func IsValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error", "critical", "fatal":
		return true
	default:
		return false
	}
}

// NewLogger returns a JSON or key=value logger writing to w with module and
// version attributes attached to every record.
func NewLogger(w io.Writer, module, version, level string, json bool) *slog.Logger {
	return newLogger(w, module, version, ParseLogLevel(level), json)
}

// SetDefaultLogger installs a logger writing to stderr as the slog default.
func SetDefaultLogger(module, version, level string, json bool) {
	slog.SetDefault(NewLogger(os.Stderr, module, version, level, json))
}

func newLogger(w io.Writer, module, version string, level slog.Level, json bool) *slog.Logger {
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, handlerOptions(level))
	} else {
		h = slog.NewTextHandler(w, handlerOptions(level))
	}

	l := slog.New(h)
	if module != "" {
		l = l.With("module", module)
	}
	if version != "" {
		l = l.With("version", version)
	}
	return l
}

func handlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       level,
		AddSource:   level <= slog.LevelDebug,
		ReplaceAttr: replaceLevel,
	}
}

// replaceLevel renders LevelCritical as CRITICAL instead of ERROR+4.
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl >= LevelCritical {
		a.Value = slog.StringValue("CRITICAL")
	}
	return a
}
