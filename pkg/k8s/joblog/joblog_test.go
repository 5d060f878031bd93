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

package joblog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	k8stesting "k8s.io/client-go/testing"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/k8stest"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func jobWithInit() *unstructured.Unstructured {
	job := k8stest.Job("batch-v1", "main")
	_ = unstructured.SetNestedSlice(job.Object, []any{
		map[string]any{"name": "setup", "image": "busybox:1.36"},
	}, "spec", "template", "spec", "initContainers")
	return job
}

func podWithInit(name string, start time.Time) *corev1.Pod {
	p := k8stest.Pod(name, "batch-v1", start, k8stest.Terminated("main", "Completed", 0))
	p.Spec.InitContainers = []corev1.Container{{Name: "setup", Image: "busybox:1.36"}}
	return p
}

func rule() string {
	return strings.Repeat("=", RuleWidth)
}

func TestFetchLogs_AllContainers(t *testing.T) {
	c := k8stest.NewCluster(jobWithInit(),
		podWithInit("batch-v1-old", t0),
		podWithInit("batch-v1-new", t0.Add(time.Minute)),
	)

	ok, text, err := New(c.Session).FetchLogs(context.Background(), "batch-v1", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	want := "pod/batch-v1-new container/setup\n" + rule() + "\nfake logs\n" + rule() + "\n" +
		"pod/batch-v1-new container/main\n" + rule() + "\nfake logs\n" + rule() + "\n"
	assert.Equal(t, want, text)
}

func TestFetchLogs_Selected(t *testing.T) {
	c := k8stest.NewCluster(jobWithInit(), podWithInit("batch-v1-abc", t0))

	ok, text, err := New(c.Session).FetchLogs(context.Background(), "batch-v1", []string{"main"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, strings.HasPrefix(text, "pod/batch-v1-abc container/main\n"))
	assert.NotContains(t, text, "container/setup")
}

func TestFetchLogs_MissingContainer(t *testing.T) {
	c := k8stest.NewCluster(jobWithInit(), podWithInit("batch-v1-abc", t0))

	ok, text, err := New(c.Session).FetchLogs(context.Background(), "batch-v1", []string{"main", "worker", "setup"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, text, "container/main")
	assert.NotContains(t, text, "container/setup")
}

func TestFetchLogs_NoPods(t *testing.T) {
	c := k8stest.NewCluster(jobWithInit())

	ok, text, err := New(c.Session).FetchLogs(context.Background(), "batch-v1", nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestFetchLogs_JobMissing(t *testing.T) {
	c := k8stest.NewCluster()

	ok, _, err := New(c.Session).FetchLogs(context.Background(), "batch-v1", nil)
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestFetchLogs_ListError(t *testing.T) {
	c := k8stest.NewCluster(jobWithInit())
	c.Clientset.PrependReactor("list", "pods", func(k8stesting.Action) (bool, runtime.Object, error) {
		return true, nil, apierrors.NewInternalError(assert.AnError)
	})

	ok, _, err := New(c.Session).FetchLogs(context.Background(), "batch-v1", nil)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestWriteBlock_KeepsTrailingNewline(t *testing.T) {
	var sb strings.Builder
	writeBlock(&sb, "p", "c", "line\n")
	assert.Equal(t, "pod/p container/c\n"+rule()+"\nline\n"+rule()+"\n", sb.String())
}
