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

package agent

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/NVIDIA/template-job-agent/pkg/defaults"
	"github.com/NVIDIA/template-job-agent/pkg/errors"
)

// pushJobName is the Pushgateway job label of every push.
const pushJobName = "tjagent"

var (
	// Submission metrics
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tjagent_submissions_total",
			Help: "Total number of template submissions",
		},
		[]string{"status"}, // success or error
	)

	objectsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tjagent_objects_created_total",
			Help: "Total number of objects created from templates",
		},
		[]string{"kind"},
	)

	// Wait metrics
	waitOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tjagent_wait_outcomes_total",
			Help: "Total number of finished waits by terminal state",
		},
		[]string{"state"}, // Succeeded, Failed, TimedOut, NotFound
	)

	waitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tjagent_wait_duration_seconds",
			Help:    "Time spent waiting for an object to finish",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 900, 3600},
		},
		[]string{"state"},
	)

	waitPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tjagent_wait_polls_total",
			Help: "Total number of status reads while waiting",
		},
	)

	waitTransientErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tjagent_wait_transient_errors_total",
			Help: "Total number of retried read errors while waiting",
		},
	)
)

func recordReport(r *Report) {
	status := "success"
	if !r.OK() {
		status = "error"
	}
	submissionsTotal.WithLabelValues(status).Inc()

	for _, o := range r.Objects {
		objectsCreatedTotal.WithLabelValues(o.Kind).Inc()
		if o.Result == nil {
			continue
		}
		state := string(o.Result.State)
		waitOutcomesTotal.WithLabelValues(state).Inc()
		waitDuration.WithLabelValues(state).Observe(o.Result.Elapsed.Seconds())
		waitPollsTotal.Add(float64(o.Result.Polls))
		waitTransientErrorsTotal.Add(float64(o.Result.TransientErrors))
	}
}

// PushMetrics sends the agent metrics to the Pushgateway at url, grouped by
// run id. Batch runs end before a scraper could see them.
func PushMetrics(ctx context.Context, url, runID string) error {
	if url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.MetricsPushTimeout)
	defer cancel()

	p := push.New(url, pushJobName).
		Collector(submissionsTotal).
		Collector(objectsCreatedTotal).
		Collector(waitOutcomesTotal).
		Collector(waitDuration).
		Collector(waitPollsTotal).
		Collector(waitTransientErrorsTotal)
	if runID != "" {
		p = p.Grouping("run_id", runID)
	}

	if err := p.PushContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("failed to push metrics to %s", url), err)
	}
	return nil
}
