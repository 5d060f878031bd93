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

// Package pod inspects the pods of a job.
//
// Classify turns container statuses into a tagged State with a reason, and
// Unacceptable names the reasons that cannot resolve without changing the
// job (image pull errors, crash loops, bad container config). They end a
// wait early instead of running into the timeout.
//
// The failure path uses the Inspector:
//
//	insp := pod.NewInspector(session)
//	diags, err := insp.Diagnose(ctx, "my-job", jobStart)
//
// Diagnose lists the pods started at or after jobStart, so pods left behind
// by an earlier run under the same name are ignored, then describes each one
// and collects the logs of all of its containers.
//
// StallTracker reports containers that keep the same waiting or running
// reason across polls.
package pod
