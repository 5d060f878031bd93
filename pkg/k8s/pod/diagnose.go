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

package pod

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/distribution/reference"
	corev1 "k8s.io/api/core/v1"
)

// ImageIssue describes a container that could not pull its image.
type ImageIssue struct {
	Container  string `json:"container" yaml:"container"`
	Image      string `json:"image" yaml:"image"`
	Reason     string `json:"reason" yaml:"reason"`
	Registry   string `json:"registry,omitempty" yaml:"registry,omitempty"`
	Repository string `json:"repository,omitempty" yaml:"repository,omitempty"`
	Tag        string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Digest     string `json:"digest,omitempty" yaml:"digest,omitempty"`
	Problem    string `json:"problem,omitempty" yaml:"problem,omitempty"`
}

// Diagnosis is the failure report of one pod.
type Diagnosis struct {
	Pod         string            `json:"pod" yaml:"pod"`
	Phase       string            `json:"phase" yaml:"phase"`
	Containers  []ContainerStatus `json:"containers,omitempty" yaml:"containers,omitempty"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Logs        map[string]string `json:"logs,omitempty" yaml:"logs,omitempty"`
	Images      []ImageIssue      `json:"images,omitempty" yaml:"images,omitempty"`
	Errors      []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Diagnose describes every current pod of jobName and collects its logs.
// Individual describe or log failures are recorded in the diagnosis; only a
// failure to list the pods is returned as an error.
func (i *Inspector) Diagnose(ctx context.Context, jobName string, since *time.Time) ([]Diagnosis, error) {
	pods, err := i.ListCurrent(ctx, jobName, since)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(pods))
	for _, p := range pods {
		names = append(names, p.Name)
	}
	slog.Error("pods that failed", "job", jobName, "pods", names)

	out := make([]Diagnosis, 0, len(pods))
	for idx := range pods {
		p := &pods[idx]
		d := Diagnosis{
			Pod:        p.Name,
			Phase:      string(p.Status.Phase),
			Containers: Classify(p),
		}

		desc, err := i.Describe(ctx, p)
		if err != nil {
			d.Errors = append(d.Errors, err.Error())
		}
		d.Description = desc
		slog.Error("pod description", "pod", p.Name, "description", desc)

		logs, err := i.CollectLogs(ctx, p)
		if err != nil {
			d.Errors = append(d.Errors, err.Error())
		}
		d.Logs = logs
		for _, name := range ContainerNames(p) {
			if text, ok := logs[name]; ok {
				slog.Error("pod logs", "pod", p.Name, "container", name, "logs", text)
			}
		}

		for _, cs := range d.Containers {
			if ImagePullFailure(cs.Reason) {
				issue := DiagnoseImage(imageOf(p, cs.Container), cs.Reason)
				issue.Container = cs.Container
				slog.Error("image pull failed",
					"pod", p.Name,
					"container", cs.Container,
					"image", issue.Image,
					"registry", issue.Registry,
					"repository", issue.Repository,
					"tag", issue.Tag,
					"problem", issue.Problem)
				d.Images = append(d.Images, issue)
			}
		}

		out = append(out, d)
	}
	return out, nil
}

func imageOf(p *corev1.Pod, container string) string {
	for _, list := range [][]corev1.Container{p.Spec.InitContainers, p.Spec.Containers} {
		for _, c := range list {
			if c.Name == container {
				return c.Image
			}
		}
	}
	return ""
}

// DiagnoseImage splits image into its registry, repository and tag so that a
// typo in any of them stands out. Unparsable references carry the parse
// error as the problem.
func DiagnoseImage(image, reason string) ImageIssue {
	issue := ImageIssue{Image: image, Reason: reason}
	if image == "" {
		issue.Problem = "container has no image"
		return issue
	}

	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		issue.Problem = err.Error()
		return issue
	}

	issue.Registry = reference.Domain(named)
	issue.Repository = reference.Path(named)
	if t, ok := named.(reference.Tagged); ok {
		issue.Tag = t.Tag()
	}
	if d, ok := named.(reference.Digested); ok {
		issue.Digest = d.Digest().String()
	}
	if issue.Tag == "" && issue.Digest == "" {
		issue.Tag = "latest"
		issue.Problem = "no tag given, latest is implied"
	}
	if !strings.Contains(image, "/") {
		if issue.Problem != "" {
			issue.Problem += "; "
		}
		issue.Problem += "short name resolved to " + issue.Registry
	}
	return issue
}
