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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"critical", LevelCritical},
		{" Critical ", LevelCritical},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.input))
		})
	}
}

func TestIsValidLogLevel(t *testing.T) {
	for _, l := range []string{"critical", "error", "warning", "info", "debug"} {
		assert.True(t, IsValidLogLevel(l), l)
	}
	assert.False(t, IsValidLogLevel("verbose"))
	assert.False(t, IsValidLogLevel(""))
}

func TestNewLogger_Attributes(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "tjagent", "v1.2.3", slog.LevelInfo, true)

	l.Info("created", "kind", "Job")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "tjagent", rec["module"])
	assert.Equal(t, "v1.2.3", rec["version"])
	assert.Equal(t, "Job", rec["kind"])
	assert.Equal(t, "INFO", rec["level"])
	assert.NotContains(t, rec, "source")
}

func TestNewLogger_CriticalLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "", "", LevelCritical, true)

	l.Error("filtered out")
	assert.Empty(t, buf.String())

	l.Log(context.Background(), LevelCritical, "job failed")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "CRITICAL", rec["level"])
	assert.NotContains(t, rec, "module")
}

func TestNewLogger_DebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "tjagent", "dev", slog.LevelDebug, false)

	l.Debug("tick", "n", 1)

	assert.Contains(t, buf.String(), "source=")
	assert.Contains(t, buf.String(), "n=1")
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, "tjagent", "v1.2.3", "warning", false)

	l.Info("dropped")
	l.Warn("kept", "object", "Job/batch-v1")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "module=tjagent")
	assert.Contains(t, out, "object=Job/batch-v1")
}

func TestSetDefaultLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	SetDefaultLogger("tjagent", "v1.2.3", "error", true)

	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, slog.Default().Enabled(context.Background(), LevelCritical))
}
