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
	"fmt"
	"log/slog"
	"strings"

	batchv1 "k8s.io/api/batch/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/object"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/pod"
)

// RuleWidth is the width of the separator around each log block.
const RuleWidth = 80

var jobGVR = batchv1.SchemeGroupVersion.WithResource("jobs")

// Aggregator concatenates container logs of a job's pods.
type Aggregator struct {
	session   *client.Session
	inspector *pod.Inspector
}

// New returns an Aggregator working on session.
func New(session *client.Session) *Aggregator {
	return &Aggregator{
		session:   session,
		inspector: pod.NewInspector(session),
	}
}

// FetchLogs returns the logs of the named containers of job jobName. With no
// names, every init container and then every container of the job's pod
// template is used. Pods are searched newest first and the first pod
// declaring a container supplies its log.
//
// The boolean is false when a container is not found in any pod; the text
// accumulated up to that container is still returned. API failures are
// returned as the error.
func (a *Aggregator) FetchLogs(ctx context.Context, jobName string, containers []string) (bool, string, error) {
	job, err := a.session.Dynamic.Resource(jobGVR).Namespace(a.session.Namespace).
		Get(ctx, jobName, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return false, "", errors.WrapWithContext(errors.ErrCodeNotFound,
				fmt.Sprintf("job %s not found", jobName), err,
				map[string]any{"namespace": a.session.Namespace})
		}
		return false, "", errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to get job %s", jobName), err)
	}

	if len(containers) == 0 {
		containers = object.ContainerNames(job)
	}

	pods, err := a.inspector.ListCurrent(ctx, jobName, nil)
	if err != nil {
		return false, "", err
	}

	var sb strings.Builder
	for _, name := range containers {
		found := false
		for i := range pods {
			p := &pods[i]
			if !pod.HasContainer(p, name) {
				continue
			}

			text, err := a.inspector.ContainerLog(ctx, p, name)
			if err != nil {
				return false, sb.String(), err
			}
			writeBlock(&sb, p.Name, name, text)
			found = true
			break
		}

		if !found {
			slog.Error("container not found in any pod of job",
				"job", jobName,
				"container", name,
				"pods", len(pods))
			return false, sb.String(), nil
		}
	}

	return true, sb.String(), nil
}

func writeBlock(sb *strings.Builder, podName, container, text string) {
	rule := strings.Repeat("=", RuleWidth)
	fmt.Fprintf(sb, "pod/%s container/%s\n", podName, container)
	sb.WriteString(rule)
	sb.WriteString("\n")
	sb.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(rule)
	sb.WriteString("\n")
}
