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

// Package k8s groups the cluster-facing packages of tjagent.
//
// # Sub-packages
//
//   - client: builds a Session (typed, dynamic and mapping clients plus the
//     project namespace) from a token or a kubeconfig.
//   - object: references and unstructured field accessors shared by the others.
//   - template: fetches, processes and instantiates templates.
//   - pod: lists the current pods of a job and classifies container states,
//     describes pods and diagnoses image problems.
//   - joblog: concatenates container logs of a job.
//   - waiter: polls created objects until they reach a terminal state.
//   - agent: ties the above together into submissions with reports and metrics.
//   - k8stest: fake clusters and object builders for tests.
//
// # Usage
//
//	session, err := client.NewSession(client.Config{
//	    APIServerURL: "https://api.cluster.example.com:6443",
//	    Namespace:    "batch",
//	    TokenEnvKey:  "ECFLOW_OPENSHIFT_TOKEN",
//	})
//	if err != nil {
//	    return err
//	}
//	rep, err := agent.New(session).CreateJobFromTemplate(ctx, agent.Request{
//	    TemplateName: "batch-v1",
//	    Params:       map[string]string{"ARG": "42"},
//	    Timeout:      time.Minute,
//	})
//
// # Concurrency
//
// A Session is safe for concurrent use. Agents and waiters process one
// submission at a time; use one per goroutine.
package k8s
