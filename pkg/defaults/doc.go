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

// Package defaults provides centralized timing constants for the agent.
//
// All wait budgets, poll intervals, retry bounds and API timeouts are defined
// here so behavior stays consistent between the CLI and the library and
// tuning happens in one place.
//
// # Timing Categories
//
//   - Supervision: poll interval, progress interval, existence retries
//   - Pod state warnings: stall thresholds
//   - Kubernetes: delete, request and cleanup timeouts
//   - Output: report and metrics push timeouts
//
// # Usage
//
//	import "github.com/NVIDIA/template-job-agent/pkg/defaults"
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.K8sRequestTimeout)
//	defer cancel()
package defaults
