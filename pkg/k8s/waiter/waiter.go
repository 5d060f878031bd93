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
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
	"k8s.io/utils/clock"

	"github.com/NVIDIA/template-job-agent/pkg/defaults"
	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/joblog"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/object"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/pod"
	"github.com/NVIDIA/template-job-agent/pkg/logging"
)

// State is a state of the wait state machine.
type State string

const (
	StateAwaitingCreation State = "AwaitingCreation"
	StatePolling          State = "Polling"
	StateSucceeded        State = "Succeeded"
	StateFailed           State = "Failed"
	StateTimedOut         State = "TimedOut"
	StateNotFound         State = "NotFound"
)

// Terminal reports whether s ends the wait.
func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut, StateNotFound:
		return true
	default:
		return false
	}
}

// Result is the outcome of one wait.
type Result struct {
	Object  string `json:"object" yaml:"object"`
	State   State  `json:"state" yaml:"state"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	Elapsed   time.Duration  `json:"elapsed" yaml:"elapsed"`
	Remaining time.Duration  `json:"remaining" yaml:"remaining"`
	Duration  *time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`

	Polls           int `json:"polls" yaml:"polls"`
	TransientErrors int `json:"transientErrors,omitempty" yaml:"transientErrors,omitempty"`

	Logs         string          `json:"logs,omitempty" yaml:"logs,omitempty"`
	LogsComplete bool            `json:"logsComplete,omitempty" yaml:"logsComplete,omitempty"`
	Diagnostics  []pod.Diagnosis `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Succeeded reports whether the object finished successfully.
func (r *Result) Succeeded() bool {
	return r != nil && r.State == StateSucceeded
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(w *Waiter) {
		w.clock = c
	}
}

// WithPollInterval sets the delay between two reads of the object.
func WithPollInterval(d time.Duration) Option {
	return func(w *Waiter) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithExistenceRetries sets how often a freshly created object is read
// before it is declared missing, and the delay between reads.
func WithExistenceRetries(n int, interval time.Duration) Option {
	return func(w *Waiter) {
		if n > 0 {
			w.retries = n
		}
		if interval > 0 {
			w.retryInterval = interval
		}
	}
}

// WithProgressInterval sets the step of the "still waiting" log lines.
func WithProgressInterval(d time.Duration) Option {
	return func(w *Waiter) {
		w.progress = d
	}
}

// WithLogContainers limits the logs collected for a succeeded Job to the
// named containers. All containers of the Job spec are used otherwise.
func WithLogContainers(names ...string) Option {
	return func(w *Waiter) {
		w.logContainers = names
	}
}

// Waiter supervises created objects until they reach a terminal state.
type Waiter struct {
	session       *client.Session
	clock         clock.Clock
	interval      time.Duration
	retries       int
	retryInterval time.Duration
	progress      time.Duration
	logContainers []string

	inspector *pod.Inspector
	logs      *joblog.Aggregator
}

// New returns a Waiter working on session.
func New(session *client.Session, opts ...Option) *Waiter {
	w := &Waiter{
		session:       session,
		clock:         clock.RealClock{},
		interval:      defaults.PollInterval,
		retries:       defaults.ExistenceRetries,
		retryInterval: defaults.ExistenceRetryInterval,
		progress:      defaults.ProgressInterval,
		inspector:     pod.NewInspector(session),
		logs:          joblog.New(session),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// run holds the state of one Wait call.
type run struct {
	ref    object.Ref
	ri     dynamic.ResourceInterface
	budget *Budget
	stalls *pod.StallTracker
	obj    *unstructured.Unstructured
	since  *time.Time
	res    *Result
}

// Wait polls ref until it succeeds, fails, disappears or timeout has passed.
// Terminal states are reported in the Result; the error is set only for
// failures the wait cannot interpret, such as a rejected read or a canceled
// context. Wait never blocks much longer than timeout plus one poll
// interval.
func (w *Waiter) Wait(ctx context.Context, ref object.Ref, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		timeout = defaults.JobTimeout
	}

	r := &run{
		ref:    ref,
		ri:     w.resource(ref),
		budget: NewBudget(w.clock.Now(), timeout, w.progress),
		stalls: pod.NewStallTracker(w.clock, defaults.StallWarnAfter, defaults.StallWarnInterval),
		res:    &Result{Object: ref.String(), State: StateAwaitingCreation},
	}

	slog.Info("waiting for object to finish", "object", ref.String(), "timeout", timeout.String())

	err := w.awaitCreation(ctx, r)
	if err == nil && !r.res.State.Terminal() {
		r.res.State = StatePolling
		err = w.poll(ctx, r)
	}

	now := w.clock.Now()
	r.res.Elapsed = r.budget.Elapsed(now)
	r.res.Remaining = r.budget.Left(now)
	if err != nil {
		return r.res, err
	}

	if r.res.Succeeded() {
		w.finishSucceeded(ctx, r)
	} else {
		w.finishFailed(ctx, r)
	}
	return r.res, nil
}

func (w *Waiter) resource(ref object.Ref) dynamic.ResourceInterface {
	if ref.Namespaced {
		ns := ref.Namespace
		if ns == "" {
			ns = w.session.Namespace
		}
		return w.session.Dynamic.Resource(ref.Resource).Namespace(ns)
	}
	return w.session.Dynamic.Resource(ref.Resource)
}

// awaitCreation reads the object until it is visible. The object may not be
// readable right after creation.
func (w *Waiter) awaitCreation(ctx context.Context, r *run) error {
	for attempt := 1; attempt <= w.retries; attempt++ {
		if err := w.checkContext(ctx, r); err != nil || r.res.State.Terminal() {
			return err
		}

		u, err := r.ri.Get(ctx, r.ref.Name, metav1.GetOptions{})
		if err == nil {
			r.obj = u
			return nil
		}

		switch classifyError(err) {
		case classNotFound:
			slog.Debug("object not visible yet", "object", r.ref.String(), "attempt", attempt, "retries", w.retries)
		case classTimeout:
			w.timedOut(r, "client timeout reading object")
			return nil
		case classTransient:
			r.res.TransientErrors++
			slog.Warn("transient error reading object", "object", r.ref.String(), "attempt", attempt, "error", err)
		default:
			return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to read %s", r.ref), err)
		}

		if attempt == w.retries {
			break
		}
		now := w.clock.Now()
		if r.budget.Expired(now) {
			w.timedOut(r, w.timeoutMessage(r))
			return nil
		}
		w.clock.Sleep(min(w.retryInterval, r.budget.Left(now)))
	}

	r.res.State = StateNotFound
	r.res.Reason = "NotFound"
	r.res.Message = fmt.Sprintf("%s not found after %d attempts", r.ref, w.retries)
	slog.Error("object not found", "object", r.ref.String(), "attempts", w.retries)
	return nil
}

// poll evaluates the object on every tick until a terminal state is reached.
func (w *Waiter) poll(ctx context.Context, r *run) error {
	for {
		r.res.Polls++
		if w.evaluate(ctx, r) {
			return nil
		}

		now := w.clock.Now()
		if r.budget.Expired(now) {
			w.timedOut(r, w.timeoutMessage(r))
			return nil
		}
		if rem, ok := r.budget.Progress(now); ok {
			slog.Info("still waiting", "object", r.ref.String(), "remaining", rem.String())
		}

		sleep := w.interval
		if left := r.budget.Left(now); left < sleep {
			sleep = left
		}
		w.clock.Sleep(sleep)

		if err := w.checkContext(ctx, r); err != nil || r.res.State.Terminal() {
			return err
		}

		u, err := r.ri.Get(ctx, r.ref.Name, metav1.GetOptions{})
		if err == nil {
			r.obj = u
			continue
		}

		switch classifyError(err) {
		case classNotFound:
			r.res.State = StateNotFound
			r.res.Reason = "NotFound"
			r.res.Message = fmt.Sprintf("%s disappeared while waiting", r.ref)
			slog.Error("object disappeared", "object", r.ref.String())
			return nil
		case classTimeout:
			w.timedOut(r, "client timeout reading object")
			return nil
		case classTransient:
			r.res.TransientErrors++
			slog.Warn("transient error reading object, retrying", "object", r.ref.String(), "error", err)
		default:
			return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("failed to read %s", r.ref), err)
		}
	}
}

// evaluate inspects the last read of the object and reports whether a
// terminal state was reached.
func (w *Waiter) evaluate(ctx context.Context, r *run) bool {
	if r.since == nil {
		r.since = object.Time(r.obj, "status", "startTime")
	}

	if succeeded(r.obj) {
		r.res.State = StateSucceeded
		return true
	}
	if ok, reason, msg := failed(r.obj); ok {
		r.res.State = StateFailed
		r.res.Reason = reason
		r.res.Message = msg
		slog.Error("job failed", "object", r.ref.String(), "reason", reason, "message", msg)
		return true
	}

	if r.ref.Kind != "Job" || r.since == nil {
		return false
	}

	pods, err := w.inspector.ListCurrent(ctx, r.ref.Name, r.since)
	if err != nil {
		slog.Warn("unable to check pods", "object", r.ref.String(), "error", err)
		return false
	}

	if cs, ok := pod.FirstUnacceptable(pods); ok {
		r.res.State = StateFailed
		r.res.Reason = cs.Reason
		r.res.Message = fmt.Sprintf("pod %s container %s is not ready: %s", cs.Pod, cs.Container, cs.Reason)
		if cs.Message != "" {
			r.res.Message += ": " + cs.Message
		}
		slog.Error("pod is not ready", "pod", cs.Pod, "container", cs.Container, "reason", cs.Reason)
		return true
	}

	var statuses []pod.ContainerStatus
	for i := range pods {
		statuses = append(statuses, pod.Classify(&pods[i])...)
	}
	r.stalls.Warn(statuses)
	return false
}

func (w *Waiter) timeoutMessage(r *run) string {
	return fmt.Sprintf("timeout value %s reached at %s", r.budget.timeout, r.budget.Deadline().UTC().Format(time.RFC3339))
}

func (w *Waiter) timedOut(r *run, msg string) {
	r.res.State = StateTimedOut
	r.res.Reason = "Timeout"
	r.res.Message = msg
	slog.Error("timeout waiting for object", "object", r.ref.String(), "message", msg)
}

// checkContext ends the wait when ctx is done. A passed deadline counts as
// a timeout, cancellation is returned as an error.
func (w *Waiter) checkContext(ctx context.Context, r *run) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, context.DeadlineExceeded):
		w.timedOut(r, "context deadline exceeded")
		return nil
	default:
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("wait for %s canceled", r.ref), err)
	}
}

func (w *Waiter) finishSucceeded(ctx context.Context, r *run) {
	if u, err := r.ri.Get(ctx, r.ref.Name, metav1.GetOptions{}); err == nil {
		r.obj = u
	} else {
		slog.Warn("unable to re-read finished object", "object", r.ref.String(), "error", err)
	}

	r.res.Duration = runDuration(r.obj)

	if r.ref.Kind == "Job" {
		ok, text, err := w.logs.FetchLogs(ctx, r.ref.Name, w.logContainers)
		if err != nil {
			slog.Warn("unable to fetch job logs", "object", r.ref.String(), "error", err)
		}
		r.res.Logs = text
		r.res.LogsComplete = ok
		if text != "" {
			slog.Info("job logs", "object", r.ref.String(), "logs", text)
		}
	}

	attrs := []any{"object", r.ref.String(), "elapsed", r.res.Elapsed.String()}
	if r.res.Duration != nil {
		attrs = append(attrs, "duration", r.res.Duration.String())
	}
	slog.Info("job finished successfully", attrs...)
}

func (w *Waiter) finishFailed(ctx context.Context, r *run) {
	slog.Log(ctx, logging.LevelCritical, "object did not succeed",
		"object", r.ref.String(),
		"state", string(r.res.State),
		"reason", r.res.Reason,
		"elapsed", r.res.Elapsed.String(),
		"remaining", r.res.Remaining.String())

	if r.ref.Kind != "Job" {
		return
	}

	// A context that ended the wait must not prevent the diagnostics.
	dctx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), defaults.K8sRequestTimeout)
		defer cancel()
	}

	since := r.since
	if since == nil && r.obj != nil {
		t := r.obj.GetCreationTimestamp().Time
		if !t.IsZero() {
			since = &t
		}
	}

	diags, err := w.inspector.Diagnose(dctx, r.ref.Name, since)
	if err != nil {
		slog.Error("unable to diagnose pods", "object", r.ref.String(), "error", err)
		return
	}
	r.res.Diagnostics = diags
}
