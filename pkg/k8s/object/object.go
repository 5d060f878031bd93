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

// Package object resolves and reads the generic objects a template expands into.
package object

import (
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Ref identifies a created object and the resource used to address it.
type Ref struct {
	Kind       string
	Name       string
	Namespace  string
	Resource   schema.GroupVersionResource
	Namespaced bool
}

// String returns kind/name, the form used in every log line.
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.Name)
}

// RefFor maps the object's kind to its resource. The namespace of u is kept
// for namespaced resources and cleared otherwise.
func RefFor(mapper meta.RESTMapper, u *unstructured.Unstructured) (Ref, error) {
	gvk := u.GroupVersionKind()
	if gvk.Kind == "" {
		return Ref{}, fmt.Errorf("object %q has no kind", u.GetName())
	}

	mapping, err := mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to map %s to a resource: %w", gvk, err)
	}

	ref := Ref{
		Kind:     gvk.Kind,
		Name:     u.GetName(),
		Resource: mapping.Resource,
	}
	if mapping.Scope.Name() == meta.RESTScopeNameNamespace {
		ref.Namespaced = true
		ref.Namespace = u.GetNamespace()
	}
	return ref, nil
}

// Int64 reads an integer field. JSON decoders may hand numbers over as
// float64, both are accepted. The boolean is false when the field is absent
// or not a number.
func Int64(u *unstructured.Unstructured, fields ...string) (int64, bool) {
	if u == nil {
		return 0, false
	}
	v, found, err := unstructured.NestedFieldNoCopy(u.Object, fields...)
	if err != nil || !found {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

// String reads a string field, empty when absent.
func String(u *unstructured.Unstructured, fields ...string) string {
	if u == nil {
		return ""
	}
	s, _, _ := unstructured.NestedString(u.Object, fields...)
	return s
}

// Time reads an RFC3339 timestamp field, nil when absent or unparsable.
func Time(u *unstructured.Unstructured, fields ...string) *time.Time {
	s := String(u, fields...)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

// Maps returns the map elements of a slice field, skipping anything else.
func Maps(u *unstructured.Unstructured, fields ...string) []map[string]any {
	if u == nil {
		return nil
	}
	v, found, err := unstructured.NestedFieldNoCopy(u.Object, fields...)
	if err != nil || !found {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// ContainerNames lists init container names followed by container names of
// a pod template (spec.template.spec) or, for bare pods, of spec.
func ContainerNames(u *unstructured.Unstructured) []string {
	podSpec := []string{"spec", "template", "spec"}
	if u.GetKind() == "Pod" {
		podSpec = []string{"spec"}
	}

	var names []string
	for _, list := range []string{"initContainers", "containers"} {
		for _, c := range Maps(u, append(append([]string{}, podSpec...), list)...) {
			if n, ok := c["name"].(string); ok && n != "" {
				names = append(names, n)
			}
		}
	}
	return names
}

// Images lists the container images of the object's pod template.
func Images(u *unstructured.Unstructured) []string {
	podSpec := []string{"spec", "template", "spec"}
	if u.GetKind() == "Pod" {
		podSpec = []string{"spec"}
	}

	var images []string
	for _, list := range []string{"initContainers", "containers"} {
		for _, c := range Maps(u, append(append([]string{}, podSpec...), list)...) {
			if img, ok := c["image"].(string); ok {
				images = append(images, img)
			}
		}
	}
	return images
}
