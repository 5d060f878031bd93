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

package waiter

import (
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/object"
)

// Job condition types set by the job controller.
const (
	conditionComplete = "Complete"
	conditionFailed   = "Failed"
)

type condition struct {
	Type    string
	Status  string
	Reason  string
	Message string
}

func conditions(u *unstructured.Unstructured) []condition {
	maps := object.Maps(u, "status", "conditions")
	out := make([]condition, 0, len(maps))
	for _, m := range maps {
		c := condition{}
		c.Type, _ = m["type"].(string)
		c.Status, _ = m["status"].(string)
		c.Reason, _ = m["reason"].(string)
		c.Message, _ = m["message"].(string)
		out = append(out, c)
	}
	return out
}

func hasCondition(conds []condition, typ string) (condition, bool) {
	for _, c := range conds {
		if c.Type == typ && c.Status == "True" {
			return c, true
		}
	}
	return condition{}, false
}

// succeeded reports whether at least one pod of the job succeeded or the job
// controller marked it complete.
func succeeded(u *unstructured.Unstructured) bool {
	if n, ok := object.Int64(u, "status", "succeeded"); ok && n >= 1 {
		return true
	}
	_, ok := hasCondition(conditions(u), conditionComplete)
	return ok
}

// failed reports whether the job failed, with the reason and message of the
// Failed condition, or of the first condition when there is none.
func failed(u *unstructured.Unstructured) (bool, string, string) {
	conds := conditions(u)
	fc, hasFailed := hasCondition(conds, conditionFailed)

	n, ok := object.Int64(u, "status", "failed")
	if !hasFailed && (!ok || n < 1) {
		return false, "", ""
	}

	if hasFailed {
		return true, fc.Reason, fc.Message
	}
	if len(conds) > 0 {
		return true, conds[0].Reason, conds[0].Message
	}
	return true, "", ""
}

// runDuration returns completionTime - startTime when both are set.
func runDuration(u *unstructured.Unstructured) *time.Duration {
	start := object.Time(u, "status", "startTime")
	done := object.Time(u, "status", "completionTime")
	if start == nil || done == nil {
		return nil
	}
	d := done.Sub(*start)
	return &d
}
