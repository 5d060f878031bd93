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

// Package client builds the cluster session used by the agent.
//
// A Session carries the namespace (OpenShift project) together with a typed
// clientset, a dynamic client and a discovery backed REST mapper. Sessions
// are plain values: there is no package level client cache, so several
// agents talking to different clusters can coexist in one process.
//
// # Authentication Modes
//
// Token login (default):
//
//	s, err := client.NewSession(client.Config{
//	    APIServerURL: "https://api.cluster.example:6443",
//	    Namespace:    "batch",
//	    TokenEnvKey:  "ECFLOW_OPENSHIFT_TOKEN",
//	})
//
// The token is read from the environment variable and sent as a bearer
// token. Obtaining the token is left to the caller.
//
// Existing credentials (NoLogin):
//
//	s, err := client.NewSession(client.Config{NoLogin: true})
//
// The kubeconfig is discovered in order from the Kubeconfig field, the
// KUBECONFIG environment variable and ~/.kube/config, falling back to the
// in-cluster service account. The namespace of the current context is used
// when Namespace is empty.
//
// # Testing
//
// NewSessionForClients wraps fake clients:
//
//	s := client.NewSessionForClients("batch", fake.NewClientset(), dynfake, mapper)
package client
