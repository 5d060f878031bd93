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

/*
Package agent submits a templated batch Job and supervises it to the end.

One call to CreateJobFromTemplate reads the template from the cluster (or a
local file), expands it with the given parameters, replaces objects of the
same name, creates the result and waits for every Job among the created
objects. Other kinds are created but not waited for.

# Usage Example

	package main

	import (
		"context"
		"os"
		"time"

		"github.com/NVIDIA/template-job-agent/pkg/k8s/agent"
		"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	)

	func main() {
		ctx := context.Background()

		session, err := client.NewSession(client.Config{
			APIServerURL: "https://api.cluster.example.com:6443",
			Namespace:    "batch",
			TokenEnvKey:  "ECFLOW_OPENSHIFT_TOKEN",
		})
		if err != nil {
			panic(err)
		}

		a := agent.New(session)
		rep, err := a.CreateJobFromTemplate(ctx, agent.Request{
			TemplateName: "batch-v1",
			Params:       map[string]string{"ARG": "42"},
			Timeout:      10 * time.Minute,
		})
		if err != nil || !rep.OK() {
			os.Exit(1)
		}
	}

# Replacement

Objects with the names of the processed template objects are deleted first
and the agent waits until they are gone, so a rerun under a fixed job name
starts clean. Request.KeepExisting turns this off.

# Metrics

Every submission updates the tjagent_* Prometheus metrics. PushMetrics
sends them to a Pushgateway.

# Testing

The package is designed for testability with Kubernetes fake clients; see
package k8stest for a session backed by fakes.
*/
package agent
