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
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/template-job-agent/pkg/defaults"
)

// Stall is a container that has kept the same reason for a while.
type Stall struct {
	ContainerStatus
	For time.Duration
}

type stallKey struct {
	pod       string
	container string
}

type stallEntry struct {
	reason  string
	since   time.Time
	limiter *rate.Limiter
}

// StallTracker remembers how long each container has shown the same reason
// and reports containers stuck past a threshold. Reports for one container
// are rate limited so a long wait does not flood the log.
type StallTracker struct {
	clock   clock.PassiveClock
	after   time.Duration
	every   time.Duration
	entries map[stallKey]*stallEntry
}

// NewStallTracker returns a tracker reporting a container once it kept its
// reason for after, then at most once per every. Zero values use the
// defaults package.
func NewStallTracker(clk clock.PassiveClock, after, every time.Duration) *StallTracker {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if after <= 0 {
		after = defaults.StallWarnAfter
	}
	if every <= 0 {
		every = defaults.StallWarnInterval
	}
	return &StallTracker{
		clock:   clk,
		after:   after,
		every:   every,
		entries: make(map[stallKey]*stallEntry),
	}
}

// Observe records statuses and returns the containers to warn about now.
// Completed containers are never reported.
func (t *StallTracker) Observe(statuses []ContainerStatus) []Stall {
	now := t.clock.Now()

	var out []Stall
	for _, cs := range statuses {
		key := stallKey{pod: cs.Pod, container: cs.Container}
		e, ok := t.entries[key]
		if !ok || e.reason != cs.Reason {
			t.entries[key] = &stallEntry{reason: cs.Reason, since: now}
			continue
		}

		if cs.Reason == ReasonCompleted || cs.State == StateTerminated {
			continue
		}

		d := now.Sub(e.since)
		if d <= t.after {
			continue
		}
		if e.limiter == nil {
			e.limiter = rate.NewLimiter(rate.Every(t.every), 1)
		}
		if !e.limiter.AllowN(now, 1) {
			continue
		}

		out = append(out, Stall{ContainerStatus: cs, For: d})
	}
	return out
}

// Warn observes statuses and logs a warning for every stalled container.
func (t *StallTracker) Warn(statuses []ContainerStatus) {
	for _, s := range t.Observe(statuses) {
		slog.Warn("pod has remained in the same state",
			"pod", s.Pod,
			"container", s.Container,
			"state", s.State.String(),
			"reason", s.Reason,
			"for", s.For.Round(100*time.Millisecond).String())
	}
}
