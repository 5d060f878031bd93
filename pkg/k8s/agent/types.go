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
	"time"

	"k8s.io/utils/clock"

	"github.com/NVIDIA/template-job-agent/pkg/header"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/template"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/waiter"
)

// maxLabelValue is the longest value the API server accepts for a label.
const maxLabelValue = 63

// waitableKinds are the kinds whose completion is supervised.
var waitableKinds = map[string]bool{
	"Job": true,
}

// Request describes one submission.
type Request struct {
	// TemplateName names a template in the session namespace.
	TemplateName string
	// TemplateFile is a local template, used instead of TemplateName when set.
	TemplateFile string

	Params        map[string]string
	OverrideNames []string
	Timeout       time.Duration
	// LogContainers selects the containers whose logs are printed on success.
	LogContainers []string

	// KeepExisting skips the removal of objects with the same names.
	KeepExisting bool
	// DeleteAfterFinished removes the created objects once the wait ends.
	DeleteAfterFinished bool
	// Async returns right after creation without waiting.
	Async bool
	// LocalProcess expands the template in the agent.
	LocalProcess bool
	// CheckPermissions verifies RBAC access before anything is created.
	CheckPermissions bool
}

// ObjectReport is the outcome of one created object.
type ObjectReport struct {
	Kind   string         `json:"kind" yaml:"kind"`
	Name   string         `json:"name" yaml:"name"`
	Waited bool           `json:"waited" yaml:"waited"`
	Result *waiter.Result `json:"result,omitempty" yaml:"result,omitempty"`
}

// Report is the outcome of CreateJobFromTemplate.
type Report struct {
	header.Header `json:",inline" yaml:",inline"`

	RunID     string         `json:"runId" yaml:"runId"`
	Template  string         `json:"template" yaml:"template"`
	Namespace string         `json:"namespace" yaml:"namespace"`
	Timeout   time.Duration  `json:"timeout" yaml:"timeout"`
	Started   time.Time      `json:"started" yaml:"started"`
	Finished  time.Time      `json:"finished" yaml:"finished"`
	Async     bool           `json:"async,omitempty" yaml:"async,omitempty"`
	Objects   []ObjectReport `json:"objects" yaml:"objects"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether every created object was created and every waited
// object succeeded.
func (r *Report) OK() bool {
	if r == nil || r.Error != "" || len(r.Objects) == 0 {
		return false
	}
	for _, o := range r.Objects {
		if o.Waited && !o.Result.Succeeded() {
			return false
		}
	}
	return true
}

// Labels identifies the run on report ConfigMaps.
func (r *Report) Labels() map[string]string {
	labels := map[string]string{template.AnnotationRunID: r.RunID}
	if r.Template != "" && len(r.Template) <= maxLabelValue {
		labels[template.AnnotationTemplate] = r.Template
	}
	return labels
}

// Option configures an Agent.
type Option func(*Agent)

// WithClock replaces the real clock of the agent and its waiter.
func WithClock(c clock.Clock) Option {
	return func(a *Agent) {
		a.clock = c
	}
}

// WithWaiterOptions passes options to the job waiter.
func WithWaiterOptions(opts ...waiter.Option) Option {
	return func(a *Agent) {
		a.waiterOpts = append(a.waiterOpts, opts...)
	}
}

// WithVersion records the tool version in report headers.
func WithVersion(v string) Option {
	return func(a *Agent) {
		a.version = v
	}
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) Option {
	return func(a *Agent) {
		a.runID = id
	}
}

// Agent submits templated jobs in the session namespace and supervises them.
// One Agent may serve several sequential submissions.
type Agent struct {
	session    *client.Session
	clock      clock.Clock
	runID      string
	version    string
	waiterOpts []waiter.Option
}

// New returns an Agent working on session.
func New(session *client.Session, opts ...Option) *Agent {
	a := &Agent{
		session: session,
		clock:   clock.RealClock{},
	}
	for _, o := range opts {
		o(a)
	}
	return a
}
