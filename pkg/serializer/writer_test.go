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

package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

type testRun struct {
	Name    string        `json:"name" yaml:"name"`
	Polls   int           `json:"polls" yaml:"polls"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	Logs    string        `json:"logs,omitempty" yaml:"logs,omitempty"`
}

func TestWriter_Serialize(t *testing.T) {
	data := []testRun{
		{Name: "batch-v1", Polls: 3},
		{Name: "batch-v2", Polls: 5},
	}

	tests := []struct {
		name      string
		format    Format
		unmarshal func([]byte, any) error
	}{
		{name: "json", format: FormatJSON, unmarshal: json.Unmarshal},
		{name: "yaml", format: FormatYAML, unmarshal: yaml.Unmarshal},
		{name: "unknown falls back to json", format: Format("xml"), unmarshal: json.Unmarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriter(tt.format, &buf).Serialize(context.Background(), data); err != nil {
				t.Fatalf("Serialize failed: %v", err)
			}

			var got []testRun
			if err := tt.unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("failed to decode output: %v\n%s", err, buf.String())
			}
			if len(got) != 2 || got[1].Name != "batch-v2" || got[1].Polls != 5 {
				t.Errorf("unexpected data: %+v", got)
			}
		})
	}
}

func TestWriter_SerializeTable(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{
		"run": testRun{Name: "batch-v1", Polls: 3, Elapsed: 2 * time.Second, Logs: "line 1\nline 2\n"},
		"at":  time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600)),
		"nil": (*testRun)(nil),
	}

	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), data); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"FIELD", "VALUE",
		"run.Name", "batch-v1",
		"run.Elapsed", "2s",
		`line 1\nline 2`,
		"2026-01-02T02:04:05Z",
		"nil",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table output should contain %q:\n%s", want, out)
		}
	}

	if n := strings.Count(out, "\n"); n != 2+6 {
		t.Errorf("expected one row per leaf value, got %d lines:\n%s", n, out)
	}
}

func TestWriter_SerializeTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(FormatTable, &buf).Serialize(context.Background(), []testRun{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<empty>") {
		t.Errorf("expected <empty>, got %q", buf.String())
	}
}

func TestWriter_Close(t *testing.T) {
	w := NewStdoutWriter(FormatJSON)
	if err := w.Close(); err != nil {
		t.Errorf("Close on stdout writer should not error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Multiple Close calls should not error: %v", err)
	}
}

func TestNewFileWriterOrStdout(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		for _, path := range []string{"", "  ", "\t"} {
			w, ok := NewFileWriterOrStdout(FormatJSON, path, nil).(*Writer)
			if !ok || w.closer != nil {
				t.Errorf("expected stdout writer for %q", path)
			}
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.yaml")
		w := NewFileWriterOrStdout(FormatYAML, path, nil)
		if err := w.Serialize(context.Background(), testRun{Name: "batch-v1", Polls: 1}); err != nil {
			t.Fatalf("Serialize failed: %v", err)
		}
		if c, ok := w.(Closer); ok {
			if err := c.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read output file: %v", err)
		}
		var got testRun
		if err := yaml.Unmarshal(content, &got); err != nil {
			t.Fatalf("failed to decode file: %v", err)
		}
		if got.Name != "batch-v1" {
			t.Errorf("unexpected data in file: %+v", got)
		}
	})

	t.Run("unwritable path falls back to stdout", func(t *testing.T) {
		if _, ok := NewFileWriterOrStdout(FormatJSON, "/nonexistent/dir/report.json", nil).(*Writer); !ok {
			t.Error("expected stdout writer")
		}
	})

	t.Run("configmap without session falls back to stdout", func(t *testing.T) {
		if _, ok := NewFileWriterOrStdout(FormatJSON, "cm://batch/report", nil).(*Writer); !ok {
			t.Error("expected stdout writer")
		}
	})

	t.Run("invalid configmap uri falls back to stdout", func(t *testing.T) {
		if _, ok := NewFileWriterOrStdout(FormatJSON, "cm://batch", nil).(*Writer); !ok {
			t.Error("expected stdout writer")
		}
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		format  Format
		unknown bool
		ext     string
	}{
		{FormatJSON, false, "json"},
		{FormatYAML, false, "yaml"},
		{FormatTable, false, "txt"},
		{Format("xml"), true, "json"},
		{Format(""), true, "json"},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			if got := tt.format.IsUnknown(); got != tt.unknown {
				t.Errorf("Format(%q).IsUnknown() = %v, want %v", tt.format, got, tt.unknown)
			}
			if got := tt.format.Extension(); got != tt.ext {
				t.Errorf("Format(%q).Extension() = %q, want %q", tt.format, got, tt.ext)
			}
		})
	}

	if got := SupportedFormats(); len(got) != 3 {
		t.Errorf("SupportedFormats() = %v", got)
	}
}
