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

// Package cli implements the tjagent command line.
//
// # Commands
//
// create-job-from-template (alias create) instantiates a template and waits
// for every Job it creates:
//
//	tjagent create --template-name batch-v1 --job-param ARG=42 --job-timeout 60s
//
// print-logs-for-job (alias logs) prints the container logs of a job:
//
//	tjagent logs --job-name batch-v1 [--log-container-name main ...]
//
// Without a subcommand the command named by --command runs, which defaults
// to create-job-from-template.
//
// # Connection
//
// By default the agent logs in with the bearer token found in the environment
// variable named by --token-from-env-key (ECFLOW_OPENSHIFT_TOKEN) against
// --api-server-url, working in --project. With --no-login the kubeconfig
// discovery chain is used instead.
//
// # Configuration
//
// Every scalar flag can also be set through a TJAGENT_* environment variable,
// e.g. TJAGENT_PROJECT or TJAGENT_JOB_TIMEOUT.
//
// # Exit Codes
//
//	0  the command succeeded
//	1  any failure: missing template, creation error, failed or timed out
//	   job, missing container logs
package cli
