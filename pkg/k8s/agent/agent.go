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
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/template-job-agent/pkg/defaults"
	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/header"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/joblog"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/object"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/template"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/waiter"
	"github.com/NVIDIA/template-job-agent/pkg/naming"
)

// CreateJobFromTemplate runs one submission: the template is read and
// processed, objects with the same names are removed unless
// req.KeepExisting is set, the objects are created and every Job among them
// is waited for.
//
// Terminal job states are reported through Report.OK. The error is set for
// failures that prevent the submission or the wait from completing; the
// report is returned in both cases.
func (a *Agent) CreateJobFromTemplate(ctx context.Context, req Request) (*Report, error) {
	runID := a.runID
	if runID == "" {
		runID = uuid.NewString()
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaults.JobTimeout
	}

	rep := &Report{
		Header:    header.New(header.KindSubmissionReport, a.clock.Now(), header.WithVersion(a.version), header.WithRunID(runID)),
		RunID:     runID,
		Template:  req.TemplateName,
		Namespace: a.session.Namespace,
		Timeout:   timeout,
		Started:   a.clock.Now(),
		Async:     req.Async,
		Objects:   []ObjectReport{},
	}

	err := a.submit(ctx, req, rep, timeout)
	if err != nil {
		rep.Error = err.Error()
	}
	rep.Finished = a.clock.Now()
	recordReport(rep)

	slog.Info("submission finished",
		"run_id", runID,
		"template", rep.Template,
		"ok", rep.OK(),
		"objects", len(rep.Objects))
	return rep, err
}

func (a *Agent) submit(ctx context.Context, req Request, rep *Report, timeout time.Duration) error {
	proc := template.NewProcessor(a.session,
		template.WithLocalProcessing(req.LocalProcess),
		template.WithRunID(rep.RunID),
	)

	tpl, err := a.loadTemplate(ctx, proc, req)
	if err != nil {
		return err
	}
	rep.Template = tpl.Name

	slog.Info("submitting template",
		"run_id", rep.RunID,
		"template", tpl.Name,
		"namespace", a.session.Namespace,
		"timeout", timeout.String())

	objs, err := proc.Process(ctx, tpl, req.Params, timeout)
	if err != nil {
		return err
	}

	if err := template.ApplyNameOverride(objs, req.OverrideNames); err != nil {
		return err
	}

	if req.CheckPermissions {
		if err := a.preflight(ctx, objs, !(req.LocalProcess || tpl.Local()), !req.KeepExisting); err != nil {
			return err
		}
	}

	if !req.KeepExisting {
		for _, o := range objs {
			if err := proc.DeleteIfPresent(ctx, o, defaults.K8sDeleteTimeout); err != nil {
				return err
			}
		}
	}

	refs, err := proc.Create(ctx, tpl.Name, objs)
	for _, r := range refs {
		rep.Objects = append(rep.Objects, ObjectReport{Kind: r.Kind, Name: r.Name})
	}
	if err != nil {
		if req.DeleteAfterFinished {
			a.cleanup(ctx, refs)
		}
		return err
	}

	if req.Async {
		slog.Info("not waiting for created objects", "run_id", rep.RunID, "objects", len(refs))
		return nil
	}

	if req.DeleteAfterFinished {
		defer a.cleanup(ctx, refs)
	}

	opts := []waiter.Option{waiter.WithClock(a.clock), waiter.WithLogContainers(req.LogContainers...)}
	w := waiter.New(a.session, append(opts, a.waiterOpts...)...)
	for i, r := range refs {
		if !waitableKinds[r.Kind] {
			slog.Info("not waiting for object of this kind", "object", r.String())
			continue
		}

		res, err := w.Wait(ctx, r, timeout)
		rep.Objects[i].Waited = true
		rep.Objects[i].Result = res
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) loadTemplate(ctx context.Context, proc *template.Processor, req Request) (*template.Template, error) {
	switch {
	case req.TemplateFile != "":
		return template.Load(req.TemplateFile)
	case req.TemplateName != "":
		return proc.Fetch(ctx, req.TemplateName)
	default:
		return nil, errors.New(errors.ErrCodeInvalidRequest, "template name or template file is required")
	}
}

func (a *Agent) preflight(ctx context.Context, objs []*unstructured.Unstructured, remote, replace bool) error {
	refs := make([]object.Ref, 0, len(objs))
	for _, o := range objs {
		r, err := object.RefFor(a.session.Mapper, o)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, "unable to resolve object", err)
		}
		refs = append(refs, r)
	}

	checks, err := a.CheckPermissions(ctx, refs, remote, replace)
	if err != nil {
		return err
	}
	slog.Debug("permission checks passed", "checks", len(checks))
	return nil
}

// cleanup deletes the created objects, pods included. Failures are logged.
func (a *Agent) cleanup(ctx context.Context, refs []object.Ref) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaults.K8sCleanupTimeout)
	defer cancel()

	for _, r := range refs {
		ri := a.session.Dynamic.Resource(r.Resource)
		var err error
		if r.Namespaced {
			err = ri.Namespace(r.Namespace).Delete(ctx, r.Name, metav1.DeleteOptions{
				PropagationPolicy: ptr.To(metav1.DeletePropagationBackground),
			})
		} else {
			err = ri.Delete(ctx, r.Name, metav1.DeleteOptions{
				PropagationPolicy: ptr.To(metav1.DeletePropagationBackground),
			})
		}
		if err := ignoreNotFound(err); err != nil {
			slog.Warn("failed to delete object after finish", "object", r.String(), "error", err)
			continue
		}
		slog.Info("deleted object after finish", "object", r.String())
	}
}

// LogsForJob returns the aggregated logs of an existing job. A requested
// container missing from every pod is a NotFound error; the text collected
// before it is returned as well.
func (a *Agent) LogsForJob(ctx context.Context, jobName string, containers []string) (bool, string, error) {
	if jobName == "" {
		return false, "", errors.New(errors.ErrCodeInvalidRequest, "job name is required")
	}
	if !naming.IsLower(jobName) {
		slog.Warn("job name should be lowercase", "job", jobName)
		jobName = strings.ToLower(jobName)
	}

	ok, text, err := joblog.New(a.session).FetchLogs(ctx, jobName, containers)
	if err != nil {
		return false, text, err
	}
	if !ok {
		return false, text, errors.NewWithContext(errors.ErrCodeNotFound,
			fmt.Sprintf("not all requested containers were found in the pods of job %s", jobName),
			map[string]any{"containers": containers})
	}
	return true, text, nil
}

// ignoreNotFound returns nil if the error is "not found", otherwise returns the error.
// Used to make resource deletion idempotent.
func ignoreNotFound(err error) error {
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}
