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

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	k8stesting "k8s.io/client-go/testing"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/agent"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/k8stest"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/template"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// useCluster points the commands at a fake cluster for the duration of the test.
func useCluster(t *testing.T, objs ...runtime.Object) *k8stest.Cluster {
	t.Helper()
	c := k8stest.NewCluster(objs...)
	c.ProcessTemplates(template.Expand)

	prevSession, prevOpts := newSession, agentOptions
	newSession = func(client.Config) (*client.Session, error) { return c.Session, nil }
	agentOptions = []agent.Option{agent.WithRunID("run-1")}
	t.Cleanup(func() {
		newSession, agentOptions = prevSession, prevOpts
	})
	return c
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.Writer = &out
	err := cmd.Run(context.Background(), append([]string{name, "--log-level", "error"}, args...))
	return out.String(), err
}

func TestRoot_PrintLogs(t *testing.T) {
	useCluster(t, k8stest.Job("batch-v1", "main"),
		k8stest.Pod("batch-v1-abc", "batch-v1", t0, k8stest.Terminated("main", "Completed", 0)))

	for _, args := range [][]string{
		{"--command", commandLogs, "--job-name", "batch-v1"},
		{"logs", "--job-name", "batch-v1"},
		{commandLogs, "--job-name", "batch-v1", "--log-container-name", "main"},
	} {
		out, err := run(t, args...)
		require.NoError(t, err, args)
		assert.True(t, strings.HasPrefix(out, "pod/batch-v1-abc container/main\n"), out)
		assert.Contains(t, out, "fake logs")
	}
}

func TestRoot_PrintLogs_MissingContainer(t *testing.T) {
	useCluster(t, k8stest.Job("batch-v1", "main"),
		k8stest.Pod("batch-v1-abc", "batch-v1", t0, k8stest.Terminated("main", "Completed", 0)))

	out, err := run(t, "logs", "--job-name", "batch-v1", "--log-container-name", "worker")
	require.Error(t, err)
	assert.Empty(t, out)
}

func TestRoot_PrintLogs_RequiresJobName(t *testing.T) {
	useCluster(t)
	_, err := run(t, "logs")
	assert.ErrorContains(t, err, "--job-name is required")
}

func TestRoot_CreateAsyncWritesReport(t *testing.T) {
	c := useCluster(t, k8stest.Template("batch-v1", map[string]string{"ARG": "1"}, k8stest.Job("batch-v1", "main")))
	path := filepath.Join(t.TempDir(), "report.json")

	_, err := run(t, "--template-name", "batch-v1", "--job-param", "ARG=42", "--async", "--report", path)
	require.NoError(t, err)

	_, err = c.Dynamic.Tracker().Get(k8stest.JobGVR, k8stest.Namespace, "batch-v1")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var rep agent.Report
	require.NoError(t, json.Unmarshal(content, &rep))
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, "batch-v1", rep.Template)
	assert.True(t, rep.Async)
	require.Len(t, rep.Objects, 1)
	assert.Equal(t, "batch-v1", rep.Objects[0].Name)
}

func TestRoot_CreateReportToStdout(t *testing.T) {
	useCluster(t, k8stest.Template("batch-v1", nil, k8stest.Job("batch-v1", "main")))

	out, err := run(t, "create", "--template-name", "batch-v1", "--async", "--report", "-", "--report-format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "runId: run-1")
}

func TestRoot_CreateFailedJob(t *testing.T) {
	c := useCluster(t, k8stest.Template("batch-v1", nil, k8stest.Job("batch-v1", "main")))
	c.Dynamic.PrependReactor("get", "jobs", func(action k8stesting.Action) (bool, runtime.Object, error) {
		get := action.(k8stesting.GetAction)
		obj, err := c.Dynamic.Tracker().Get(k8stest.JobGVR, get.GetNamespace(), get.GetName())
		if err != nil {
			return true, nil, err
		}
		u := obj.(*unstructured.Unstructured).DeepCopy()
		u.Object["status"] = map[string]any{
			"failed":    int64(1),
			"startTime": k8stest.Timestamp(t0),
			"conditions": []any{map[string]any{
				"type":    "Failed",
				"status":  "True",
				"reason":  "BackoffLimitExceeded",
				"message": "Job has reached the specified backoff limit",
			}},
		}
		return true, u, nil
	})

	_, err := run(t, "--template-name", "batch-v1", "--job-timeout", "30")
	assert.ErrorContains(t, err, "did not complete successfully")
}

func TestRoot_Errors(t *testing.T) {
	useCluster(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "invalid command", args: []string{"--command", "delete-everything"}, want: "invalid command"},
		{name: "missing template", args: nil, want: "--template-name or --template-file is required"},
		{name: "template not found", args: []string{"--template-name", "batch-v9"}, want: "batch-v9"},
		{name: "invalid param", args: []string{"--template-name", "batch-v1", "--job-param", "ARG"}, want: "invalid job parameter"},
		{name: "invalid report format", args: []string{"--template-name", "batch-v1", "--report-format", "xml"}, want: "unknown report format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{name, "--log-level", "loud", "logs"})
	assert.ErrorContains(t, err, "invalid log level")
}
