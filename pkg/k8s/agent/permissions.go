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
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/object"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/template"
)

// PermissionCheck represents a single permission check result.
type PermissionCheck struct {
	Group       string
	Resource    string
	Subresource string
	Verb        string
	Namespace   string
	Allowed     bool
	Reason      string
}

type requiredPermission struct {
	group       string
	resource    string
	subresource string
	verb        string
}

// requiredPermissions lists what a submission of refs needs in the session
// namespace. remote adds the template API.
func requiredPermissions(refs []object.Ref, remote, replace bool) []requiredPermission {
	var req []requiredPermission
	if remote {
		req = append(req,
			requiredPermission{group: template.TemplateGVR.Group, resource: template.TemplateGVR.Resource, verb: "get"},
			requiredPermission{group: template.ProcessedTemplateGVR.Group, resource: template.ProcessedTemplateGVR.Resource, verb: "create"},
		)
	}

	seen := map[string]bool{}
	for _, r := range refs {
		key := r.Resource.GroupResource().String()
		if seen[key] {
			continue
		}
		seen[key] = true

		req = append(req,
			requiredPermission{group: r.Resource.Group, resource: r.Resource.Resource, verb: "create"},
			requiredPermission{group: r.Resource.Group, resource: r.Resource.Resource, verb: "get"},
		)
		if replace {
			req = append(req, requiredPermission{group: r.Resource.Group, resource: r.Resource.Resource, verb: "delete"})
		}
	}

	// Pod inspection and diagnostics
	req = append(req,
		requiredPermission{resource: "pods", verb: "list"},
		requiredPermission{resource: "pods", subresource: "log", verb: "get"},
		requiredPermission{resource: "events", verb: "list"},
	)
	return req
}

// CheckPermissions verifies that the session may submit refs and supervise
// them. Returns a list of permission checks and an error if any required
// permissions are missing.
func (a *Agent) CheckPermissions(ctx context.Context, refs []object.Ref, remote, replace bool) ([]PermissionCheck, error) {
	checks := []PermissionCheck{}
	ns := a.session.Namespace

	var missing []string
	for _, p := range requiredPermissions(refs, remote, replace) {
		allowed, reason, err := a.checkPermission(ctx, p, ns)
		if err != nil {
			return checks, errors.Wrap(errors.ErrCodeUnavailable,
				fmt.Sprintf("failed to check permission for %s %s", p.verb, p.resource), err)
		}

		checks = append(checks, PermissionCheck{
			Group:       p.group,
			Resource:    p.resource,
			Subresource: p.subresource,
			Verb:        p.verb,
			Namespace:   ns,
			Allowed:     allowed,
			Reason:      reason,
		})

		if !allowed {
			res := p.resource
			if p.subresource != "" {
				res += "/" + p.subresource
			}
			if p.group != "" {
				res += "." + p.group
			}
			missing = append(missing, fmt.Sprintf("%s %s", p.verb, res))
		}
	}

	if len(missing) > 0 {
		return checks, errors.NewWithContext(errors.ErrCodeUnauthorized,
			fmt.Sprintf("missing required permissions in project %q:\n  - %s", ns, strings.Join(missing, "\n  - ")),
			map[string]any{"namespace": ns})
	}

	return checks, nil
}

// checkPermission checks if the current user can perform the specified action.
func (a *Agent) checkPermission(ctx context.Context, p requiredPermission, namespace string) (bool, string, error) {
	review := &authv1.SelfSubjectAccessReview{
		Spec: authv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authv1.ResourceAttributes{
				Group:       p.group,
				Resource:    p.resource,
				Subresource: p.subresource,
				Verb:        p.verb,
				Namespace:   namespace,
			},
		},
	}

	result, err := a.session.Clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, review, metav1.CreateOptions{})
	if err != nil {
		return false, "", err
	}

	return result.Status.Allowed, result.Status.Reason, nil
}
