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

package defaults

import "time"

// Job supervision timings.
const (
	// JobTimeout is the default wait budget for a submitted job.
	JobTimeout = 60 * time.Second

	// PollInterval is the delay between two status reads of a supervised object.
	PollInterval = 1 * time.Second

	// ProgressInterval is the wall-clock step after which the remaining
	// budget is decremented and a progress line is logged.
	ProgressInterval = 20 * time.Second

	// ExistenceRetries bounds how many reads are attempted before a freshly
	// created object is declared missing.
	ExistenceRetries = 10

	// ExistenceRetryInterval is the delay between existence reads.
	ExistenceRetryInterval = 1 * time.Second
)

// Pod state warnings.
const (
	// StallWarnAfter is how long a container may stay in one state before
	// the first stall warning is logged.
	StallWarnAfter = 15 * time.Second

	// StallWarnInterval is the minimum spacing between two stall warnings
	// for the same container.
	StallWarnInterval = 10 * time.Second
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sDeleteTimeout bounds deletion of a pre-existing object, including
	// the wait until it is gone.
	K8sDeleteTimeout = 15 * time.Second

	// K8sDeletePollInterval is the delay between reads while waiting for deletion.
	K8sDeletePollInterval = 500 * time.Millisecond

	// K8sRequestTimeout is the timeout for single API calls outside the wait loop.
	K8sRequestTimeout = 30 * time.Second

	// K8sCleanupTimeout is the timeout for delete-after-finished cleanup.
	K8sCleanupTimeout = 30 * time.Second
)

// Output timeouts.
const (
	// ConfigMapWriteTimeout is the timeout for writing the report to a ConfigMap.
	ConfigMapWriteTimeout = 30 * time.Second

	// MetricsPushTimeout is the timeout for pushing metrics to a Pushgateway.
	MetricsPushTimeout = 10 * time.Second
)
