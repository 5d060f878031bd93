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
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	corev1 "k8s.io/api/core/v1"
)

// Describe renders pod and its events as human readable text in the layout
// of kubectl describe. A failure to list events is reported inside the text.
func (i *Inspector) Describe(ctx context.Context, pod *corev1.Pod) (string, error) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 8, 2, ' ', 0)

	fmt.Fprintf(w, "Name:\t%s\n", pod.Name)
	fmt.Fprintf(w, "Namespace:\t%s\n", pod.Namespace)
	fmt.Fprintf(w, "Node:\t%s\n", orNone(pod.Spec.NodeName))
	if pod.Status.StartTime != nil {
		fmt.Fprintf(w, "Start Time:\t%s\n", pod.Status.StartTime.UTC().Format(time.RFC1123Z))
	}
	fmt.Fprintf(w, "Labels:\t%s\n", joinLabels(pod.Labels))
	fmt.Fprintf(w, "Status:\t%s\n", pod.Status.Phase)
	if pod.Status.Reason != "" {
		fmt.Fprintf(w, "Reason:\t%s\n", pod.Status.Reason)
	}
	if pod.Status.Message != "" {
		fmt.Fprintf(w, "Message:\t%s\n", pod.Status.Message)
	}

	describeContainers(w, "Init Containers", pod.Spec.InitContainers, pod.Status.InitContainerStatuses)
	describeContainers(w, "Containers", pod.Spec.Containers, pod.Status.ContainerStatuses)

	if len(pod.Status.Conditions) > 0 {
		fmt.Fprintf(w, "Conditions:\n")
		fmt.Fprintf(w, "  Type\tStatus\n")
		for _, c := range pod.Status.Conditions {
			fmt.Fprintf(w, "  %s\t%s\n", c.Type, c.Status)
		}
	}

	events, err := i.Events(ctx, pod)
	switch {
	case err != nil:
		fmt.Fprintf(w, "Events:\t<unable to list: %v>\n", err)
	case len(events) == 0:
		fmt.Fprintf(w, "Events:\t<none>\n")
	default:
		fmt.Fprintf(w, "Events:\n")
		fmt.Fprintf(w, "  Type\tReason\tLast Seen\tFrom\tMessage\n")
		fmt.Fprintf(w, "  ----\t------\t---------\t----\t-------\n")
		for _, e := range events {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n",
				e.Type, e.Reason, eventTime(&e).UTC().Format(time.RFC3339), e.Source.Component, strings.TrimSpace(e.Message))
		}
	}

	if err := w.Flush(); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}

func describeContainers(w io.Writer, title string, containers []corev1.Container, statuses []corev1.ContainerStatus) {
	if len(containers) == 0 {
		return
	}

	byName := make(map[string]corev1.ContainerStatus, len(statuses))
	for _, s := range statuses {
		byName[s.Name] = s
	}

	fmt.Fprintf(w, "%s:\n", title)
	for _, c := range containers {
		fmt.Fprintf(w, "  %s:\n", c.Name)
		fmt.Fprintf(w, "    Image:\t%s\n", c.Image)
		if len(c.Command) > 0 {
			fmt.Fprintf(w, "    Command:\t%s\n", strings.Join(c.Command, " "))
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(w, "    Args:\t%s\n", strings.Join(c.Args, " "))
		}

		s, ok := byName[c.Name]
		if !ok {
			fmt.Fprintf(w, "    State:\t<not reported>\n")
			continue
		}
		st := classify("", s, false)
		fmt.Fprintf(w, "    State:\t%s\n", titleCase(st.State.String()))
		if st.Reason != "" && st.State != StateRunning {
			fmt.Fprintf(w, "      Reason:\t%s\n", st.Reason)
		}
		if st.Message != "" {
			fmt.Fprintf(w, "      Message:\t%s\n", st.Message)
		}
		if st.State == StateTerminated {
			fmt.Fprintf(w, "      Exit Code:\t%d\n", st.ExitCode)
		}
		fmt.Fprintf(w, "    Ready:\t%t\n", s.Ready)
		fmt.Fprintf(w, "    Restart Count:\t%d\n", s.RestartCount)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

func joinLabels(m map[string]string) string {
	if len(m) == 0 {
		return "<none>"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ",")
}
