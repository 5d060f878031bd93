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
	"context"
	"encoding/json"
	"testing"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/k8stest"
)

func TestParseConfigMapURI(t *testing.T) {
	tests := []struct {
		name          string
		uri           string
		wantNamespace string
		wantName      string
		wantErr       bool
	}{
		{
			name:          "valid URI",
			uri:           "cm://batch/tjagent-report",
			wantNamespace: "batch",
			wantName:      "tjagent-report",
		},
		{
			name:          "valid URI with spaces",
			uri:           "cm://batch / tjagent-report ",
			wantNamespace: "batch",
			wantName:      "tjagent-report",
		},
		{name: "missing scheme", uri: "batch/tjagent-report", wantErr: true},
		{name: "wrong scheme", uri: "http://batch/tjagent-report", wantErr: true},
		{name: "missing name", uri: "cm://batch/", wantErr: true},
		{name: "missing namespace", uri: "cm:///tjagent-report", wantErr: true},
		{name: "missing separator", uri: "cm://batch", wantErr: true},
		{name: "only scheme", uri: "cm://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			namespace, name, err := parseConfigMapURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseConfigMapURI() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && (namespace != tt.wantNamespace || name != tt.wantName) {
				t.Errorf("parseConfigMapURI() = %q, %q, want %q, %q", namespace, name, tt.wantNamespace, tt.wantName)
			}
		})
	}
}

type labeledReport struct {
	RunID string `json:"runId"`
}

func (r labeledReport) Labels() map[string]string {
	return map[string]string{"template-job-agent.nvidia.com/run-id": r.RunID}
}

func TestConfigMapWriter_Serialize(t *testing.T) {
	c := k8stest.NewCluster()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	w := NewFileWriterOrStdout(FormatJSON, "cm://batch/tjagent-report", c.Session)
	cmw, ok := w.(*ConfigMapWriter)
	if !ok {
		t.Fatalf("expected ConfigMapWriter, got %T", w)
	}
	cmw.now = func() time.Time { return at }

	if err := cmw.Serialize(context.Background(), labeledReport{RunID: "run-1"}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	cm, err := c.Clientset.CoreV1().ConfigMaps("batch").Get(context.Background(), "tjagent-report", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("ConfigMap not written: %v", err)
	}

	var got labeledReport
	if err := json.Unmarshal([]byte(cm.Data["report.json"]), &got); err != nil {
		t.Fatalf("report.json is not JSON: %v", err)
	}
	if got.RunID != "run-1" {
		t.Errorf("unexpected report %+v", got)
	}
	if cm.Data["format"] != "json" || cm.Data["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Errorf("unexpected metadata %v", cm.Data)
	}
	if cm.Labels["template-job-agent.nvidia.com/run-id"] != "run-1" || cm.Labels["app.kubernetes.io/name"] != "tjagent" {
		t.Errorf("unexpected labels %v", cm.Labels)
	}

	// A second write replaces the report.
	if err := cmw.Serialize(context.Background(), labeledReport{RunID: "run-2"}); err != nil {
		t.Fatalf("second Serialize failed: %v", err)
	}
	cm, err = c.Clientset.CoreV1().ConfigMaps("batch").Get(context.Background(), "tjagent-report", metav1.GetOptions{})
	if err != nil {
		t.Fatalf("ConfigMap lost: %v", err)
	}
	if cm.Labels["template-job-agent.nvidia.com/run-id"] != "run-2" {
		t.Errorf("labels not updated: %v", cm.Labels)
	}
}

func TestNewConfigMapWriter_UnknownFormat(t *testing.T) {
	w := NewConfigMapWriter(nil, "batch", "report", Format("xml"))
	if w.format != FormatJSON {
		t.Errorf("format = %v, want json", w.format)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
