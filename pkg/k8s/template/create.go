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

package template

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/dynamic"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/template-job-agent/pkg/defaults"
	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/object"
	"github.com/NVIDIA/template-job-agent/pkg/naming"
)

// ApplyNameOverride renames the processed objects. names must hold exactly
// one entry per object; every name is canonicalized before use.
func ApplyNameOverride(objs []*unstructured.Unstructured, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) != len(objs) {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("got %d override names for %d objects", len(names), len(objs)),
			map[string]any{"names": names})
	}

	for i, n := range names {
		if !naming.IsLower(n) {
			slog.Warn("job name should be lowercase", "name", n)
		}
		c := naming.Canonical(n, naming.DefaultMaxLength)
		if c == "" {
			return errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"override name is empty after canonicalization",
				map[string]any{"name": n})
		}
		slog.Debug("overriding object name", "kind", objs[i].GetKind(), "from", objs[i].GetName(), "to", c)
		objs[i].SetName(c)
	}
	return nil
}

// resource returns the dynamic client for ref in the session namespace.
func (p *Processor) resource(ref object.Ref) dynamic.ResourceInterface {
	if ref.Namespaced {
		return p.session.Dynamic.Resource(ref.Resource).Namespace(p.session.Namespace)
	}
	return p.session.Dynamic.Resource(ref.Resource)
}

// DeleteIfPresent removes an object of the same kind and name as obj and
// waits up to timeout until it is gone. A missing object is not an error.
func (p *Processor) DeleteIfPresent(ctx context.Context, obj *unstructured.Unstructured, timeout time.Duration) error {
	ref, err := object.RefFor(p.session.Mapper, obj)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "unable to resolve object", err)
	}
	if timeout <= 0 {
		timeout = defaults.K8sDeleteTimeout
	}

	ri := p.resource(ref)
	err = ri.Delete(ctx, ref.Name, metav1.DeleteOptions{
		PropagationPolicy: ptr.To(metav1.DeletePropagationForeground),
	})
	if apierrors.IsNotFound(err) {
		slog.Debug("no existing object to delete", "object", ref.String())
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("unable to delete %s", ref), err)
	}

	slog.Info("deleted existing object", "object", ref.String())

	err = wait.PollUntilContextTimeout(ctx, defaults.K8sDeletePollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			_, err := ri.Get(ctx, ref.Name, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				return true, nil
			}
			if err != nil {
				return false, err
			}
			return false, nil
		},
	)
	if wait.Interrupted(err) {
		return errors.Wrap(errors.ErrCodeTimeout, fmt.Sprintf("timeout waiting for deletion of %s", ref), err)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, fmt.Sprintf("unable to confirm deletion of %s", ref), err)
	}
	return nil
}

// Create creates objs in the session namespace. Creation stops at the first
// failure; zero created objects is always an error.
func (p *Processor) Create(ctx context.Context, templateName string, objs []*unstructured.Unstructured) ([]object.Ref, error) {
	created := make([]object.Ref, 0, len(objs))

	for _, o := range objs {
		ref, err := object.RefFor(p.session.Mapper, o)
		if err != nil {
			return created, errors.Wrap(errors.ErrCodeInvalidRequest, "unable to resolve object", err)
		}
		if ref.Namespaced {
			o.SetNamespace(p.session.Namespace)
		}
		p.stamp(o, templateName)

		res, err := p.resource(ref).Create(ctx, o, metav1.CreateOptions{})
		if err != nil {
			return created, errors.WrapWithContext(errors.ErrCodeInternal,
				fmt.Sprintf("failed to create %s", ref), err,
				map[string]any{"created": len(created)})
		}

		ref.Name = res.GetName()
		ref.Namespace = res.GetNamespace()
		created = append(created, ref)
		slog.Info("created object", "object", ref.String(), "namespace", ref.Namespace)
	}

	if len(created) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInternal,
			"failed to create any objects from template",
			map[string]any{"template": templateName})
	}
	return created, nil
}

func (p *Processor) stamp(o *unstructured.Unstructured, templateName string) {
	ann := o.GetAnnotations()
	if ann == nil {
		ann = map[string]string{}
	}
	if p.runID != "" {
		ann[AnnotationRunID] = p.runID
	}
	if templateName != "" {
		ann[AnnotationTemplate] = templateName
	}
	if len(ann) > 0 {
		o.SetAnnotations(ann)
	}
}
