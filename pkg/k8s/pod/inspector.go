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
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/labels"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
)

// JobNameLabel is set by the job controller on every pod it creates.
const JobNameLabel = "job-name"

// Inspector reads the pods of a job in the session namespace.
type Inspector struct {
	session *client.Session
}

// NewInspector returns an Inspector working on session.
func NewInspector(session *client.Session) *Inspector {
	return &Inspector{session: session}
}

// ListCurrent returns the pods of jobName, newest first. When since is set,
// pods started before it belong to an earlier run of a job with the same
// name and are dropped, as are pods that have not started yet.
func (i *Inspector) ListCurrent(ctx context.Context, jobName string, since *time.Time) ([]corev1.Pod, error) {
	list, err := i.session.Clientset.CoreV1().Pods(i.session.Namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labels.SelectorFromSet(labels.Set{JobNameLabel: jobName}).String(),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to list pods of job %s", jobName), err)
	}

	pods := make([]corev1.Pod, 0, len(list.Items))
	for _, p := range list.Items {
		if since != nil {
			if p.Status.StartTime == nil || p.Status.StartTime.Time.Before(*since) {
				slog.Debug("skipping pod of earlier run", "pod", p.Name, "job", jobName)
				continue
			}
		}
		pods = append(pods, p)
	}

	sort.SliceStable(pods, func(a, b int) bool {
		return startOf(&pods[a]).After(startOf(&pods[b]))
	})
	return pods, nil
}

func startOf(p *corev1.Pod) time.Time {
	if p.Status.StartTime != nil {
		return p.Status.StartTime.Time
	}
	return p.CreationTimestamp.Time
}

// ContainerNames lists the init containers then the containers of pod.
func ContainerNames(pod *corev1.Pod) []string {
	names := make([]string, 0, len(pod.Spec.InitContainers)+len(pod.Spec.Containers))
	for _, c := range pod.Spec.InitContainers {
		names = append(names, c.Name)
	}
	for _, c := range pod.Spec.Containers {
		names = append(names, c.Name)
	}
	return names
}

// HasContainer reports whether pod declares an init or regular container
// called name.
func HasContainer(pod *corev1.Pod, name string) bool {
	for _, n := range ContainerNames(pod) {
		if n == name {
			return true
		}
	}
	return false
}

// ContainerLog returns the log of one container of pod.
func (i *Inspector) ContainerLog(ctx context.Context, pod *corev1.Pod, container string) (string, error) {
	req := i.session.Clientset.CoreV1().Pods(pod.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{
		Container: container,
	})

	stream, err := req.Stream(ctx)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnavailable,
			fmt.Sprintf("failed to get logs of pod/%s container/%s", pod.Name, container), err)
	}
	defer stream.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, stream); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal,
			fmt.Sprintf("failed to read logs of pod/%s container/%s", pod.Name, container), err)
	}
	return buf.String(), nil
}

// CollectLogs returns the log of every init and regular container of pod.
// Containers whose log cannot be read are left out and the first such error
// is returned along with the logs that could be read.
func (i *Inspector) CollectLogs(ctx context.Context, pod *corev1.Pod) (map[string]string, error) {
	logs := make(map[string]string)
	var firstErr error
	for _, name := range ContainerNames(pod) {
		text, err := i.ContainerLog(ctx, pod, name)
		if err != nil {
			slog.Warn("unable to collect container log", "pod", pod.Name, "container", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logs[name] = text
	}
	return logs, firstErr
}

// Events returns the events recorded for pod, oldest first.
func (i *Inspector) Events(ctx context.Context, pod *corev1.Pod) ([]corev1.Event, error) {
	list, err := i.session.Clientset.CoreV1().Events(pod.Namespace).List(ctx, metav1.ListOptions{
		FieldSelector: fields.OneTermEqualSelector("involvedObject.name", pod.Name).String(),
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to list events of pod %s", pod.Name), err)
	}

	// Not every client honors field selectors.
	events := make([]corev1.Event, 0, len(list.Items))
	for _, e := range list.Items {
		if e.InvolvedObject.Name == pod.Name {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(a, b int) bool {
		return eventTime(&events[a]).Before(eventTime(&events[b]))
	})
	return events, nil
}

func eventTime(e *corev1.Event) time.Time {
	switch {
	case !e.LastTimestamp.IsZero():
		return e.LastTimestamp.Time
	case !e.EventTime.IsZero():
		return e.EventTime.Time
	default:
		return e.CreationTimestamp.Time
	}
}
