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

package object

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/k8stest"
)

func TestRefFor(t *testing.T) {
	mapper := k8stest.NewMapper()

	ref, err := RefFor(mapper, k8stest.Job("batch-v1", "main"))
	require.NoError(t, err)
	assert.Equal(t, "Job", ref.Kind)
	assert.Equal(t, "batch-v1", ref.Name)
	assert.Equal(t, k8stest.JobGVR, ref.Resource)
	assert.True(t, ref.Namespaced)
	assert.Equal(t, "Job/batch-v1", ref.String())
}

func TestRefFor_Errors(t *testing.T) {
	mapper := k8stest.NewMapper()

	_, err := RefFor(mapper, &unstructured.Unstructured{Object: map[string]any{
		"metadata": map[string]any{"name": "x"},
	}})
	assert.Error(t, err)

	_, err = RefFor(mapper, &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "example.com/v1",
		"kind":       "Unknown",
		"metadata":   map[string]any{"name": "x"},
	}})
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	job := k8stest.WithStatus(k8stest.Job("x", "main"), map[string]any{
		"succeeded": int64(1),
		"failed":    float64(2),
		"startTime": k8stest.Timestamp(start),
		"bogus":     "not-a-number",
	})

	n, ok := Int64(job, "status", "succeeded")
	assert.True(t, ok)
	assert.Equal(t, int64(1), n)

	n, ok = Int64(job, "status", "failed")
	assert.True(t, ok)
	assert.Equal(t, int64(2), n)

	_, ok = Int64(job, "status", "bogus")
	assert.False(t, ok)

	_, ok = Int64(job, "status", "missing")
	assert.False(t, ok)

	got := Time(job, "status", "startTime")
	require.NotNil(t, got)
	assert.True(t, got.Equal(start))
	assert.Nil(t, Time(job, "status", "completionTime"))
	assert.Nil(t, Time(job, "status", "bogus"))
}

func TestContainerNamesAndImages(t *testing.T) {
	job := k8stest.Job("x", "main", "sidecar")
	spec := job.Object["spec"].(map[string]any)["template"].(map[string]any)["spec"].(map[string]any)
	spec["initContainers"] = []any{map[string]any{"name": "setup", "image": "busybox"}}

	assert.Equal(t, []string{"setup", "main", "sidecar"}, ContainerNames(job))
	assert.Equal(t, []string{
		"busybox",
		"registry.example.com/batch/main:1.0",
		"registry.example.com/batch/sidecar:1.0",
	}, Images(job))
}
