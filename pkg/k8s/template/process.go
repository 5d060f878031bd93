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
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/distribution/reference"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/object"
)

var (
	// ${{NAME}} as the whole value substitutes a non-string value.
	rawParamExpr = regexp.MustCompile(`^\$\{\{([a-zA-Z0-9_]+)\}\}$`)
	// ${NAME} substitutes inside strings.
	paramExpr = regexp.MustCompile(`\$\{\{?([a-zA-Z0-9_]+)\}?\}`)
)

// DeadlineMismatch records an object whose declared active deadline differs
// from the local wait timeout.
type DeadlineMismatch struct {
	Object   string
	Field    string
	Deadline int64
	Timeout  int64
}

// Process expands tpl with params and returns the resulting objects.
// Each object whose active deadline disagrees with timeout is logged as a
// warning; the platform deadline and the wait budget are independent.
func (p *Processor) Process(ctx context.Context, tpl *Template, params map[string]string, timeout time.Duration) ([]*unstructured.Unstructured, error) {
	if err := checkParameterNames(tpl, params); err != nil {
		return nil, err
	}

	slog.Info("processing template", "template", tpl.Name, "parameters", params, "local", p.local || tpl.Local())

	var objs []*unstructured.Unstructured
	var err error
	if p.local || tpl.Local() {
		objs, err = processLocal(tpl, params)
	} else {
		objs, err = p.processRemote(ctx, tpl, params)
	}
	if err != nil {
		return nil, err
	}

	if len(objs) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInternal,
			"template expanded to zero objects",
			map[string]any{"template": tpl.Name})
	}

	for _, m := range CheckDeadlines(objs, timeout) {
		slog.Warn("wait timeout does not match template deadline",
			"object", m.Object,
			"field", m.Field,
			"timeout_s", m.Timeout,
			"deadline_s", m.Deadline)
	}

	for _, bad := range CheckImages(objs) {
		slog.Warn("invalid image reference", "image", bad)
	}

	return objs, nil
}

func checkParameterNames(tpl *Template, params map[string]string) error {
	known := make(map[string]bool, len(tpl.Parameters))
	for _, p := range tpl.Parameters {
		known[p.Name] = true
	}

	var unknown []string
	for k := range params {
		if !known[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Strings(unknown)
	return errors.NewWithContext(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("unknown template parameters: %s", strings.Join(unknown, ", ")),
		map[string]any{"template": tpl.Name})
}

func (p *Processor) processRemote(ctx context.Context, tpl *Template, params map[string]string) ([]*unstructured.Unstructured, error) {
	req := tpl.raw.DeepCopy()

	items, _, _ := unstructured.NestedSlice(req.Object, "parameters")
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if v, ok := params[name]; ok {
			m["value"] = v
		}
	}
	if err := unstructured.SetNestedSlice(req.Object, items, "parameters"); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "unable to set template parameters", err)
	}

	res, err := p.session.Dynamic.Resource(ProcessedTemplateGVR).Namespace(p.session.Namespace).
		Create(ctx, req, metav1.CreateOptions{})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to process template", err,
			map[string]any{"template": tpl.Name})
	}

	return objectsOf(res), nil
}

func objectsOf(u *unstructured.Unstructured) []*unstructured.Unstructured {
	maps := object.Maps(u, "objects")
	out := make([]*unstructured.Unstructured, 0, len(maps))
	for _, m := range maps {
		out = append(out, (&unstructured.Unstructured{Object: m}).DeepCopy())
	}
	return out
}

// Expand substitutes params into a raw Template object without the API
// server. Parameter defaults of the template apply to names not in params.
func Expand(u *unstructured.Unstructured, params map[string]string) ([]*unstructured.Unstructured, error) {
	tpl, err := fromUnstructured(u, "inline")
	if err != nil {
		return nil, err
	}
	return processLocal(tpl, params)
}

// processLocal performs the OpenShift substitution rules in process:
// ${NAME} inside strings, ${{NAME}} as a whole value for non-string values.
func processLocal(tpl *Template, params map[string]string) ([]*unstructured.Unstructured, error) {
	values := make(map[string]string, len(tpl.Parameters))
	for _, tp := range tpl.Parameters {
		v, ok := params[tp.Name]
		if !ok {
			v = tp.Value
		}
		if v == "" && tp.Generate != "" {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("parameter %s is generated by the server, pass a value or process on the server", tp.Name),
				map[string]any{"template": tpl.Name})
		}
		if v == "" && tp.Required {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("template parameter %s is required", tp.Name),
				map[string]any{"template": tpl.Name})
		}
		values[tp.Name] = v
	}

	objs := objectsOf(tpl.raw)
	for _, o := range objs {
		o.Object = substitute(o.Object, values).(map[string]any)
	}
	return objs, nil
}

func substitute(v any, values map[string]string) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = substitute(item, values)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = substitute(item, values)
		}
		return t
	case string:
		return substituteString(t, values)
	default:
		return v
	}
}

func substituteString(s string, values map[string]string) any {
	if m := rawParamExpr.FindStringSubmatch(s); m != nil {
		if val, ok := values[m[1]]; ok {
			var out any
			if err := utiljson.Unmarshal([]byte(val), &out); err == nil {
				return out
			}
			return val
		}
		return s
	}

	return paramExpr.ReplaceAllStringFunc(s, func(expr string) string {
		name := paramExpr.FindStringSubmatch(expr)[1]
		if val, ok := values[name]; ok {
			return val
		}
		return expr
	})
}

// CheckDeadlines lists objects whose job-level or pod-level
// activeDeadlineSeconds is set and differs from timeout in whole seconds.
func CheckDeadlines(objs []*unstructured.Unstructured, timeout time.Duration) []DeadlineMismatch {
	want := int64(timeout / time.Second)

	var out []DeadlineMismatch
	for _, o := range objs {
		for _, path := range [][]string{
			{"spec", "activeDeadlineSeconds"},
			{"spec", "template", "spec", "activeDeadlineSeconds"},
		} {
			dl, ok := object.Int64(o, path...)
			if !ok || dl == want {
				continue
			}
			out = append(out, DeadlineMismatch{
				Object:   fmt.Sprintf("%s/%s", strings.ToLower(o.GetKind()), o.GetName()),
				Field:    strings.Join(path, "."),
				Deadline: dl,
				Timeout:  want,
			})
		}
	}
	return out
}

// CheckImages returns the container images that are not valid references.
// Unexpanded parameter expressions are skipped.
func CheckImages(objs []*unstructured.Unstructured) []string {
	var bad []string
	for _, o := range objs {
		for _, img := range object.Images(o) {
			if paramExpr.MatchString(img) {
				continue
			}
			if _, err := reference.ParseNormalizedNamed(img); err != nil {
				bad = append(bad, img)
			}
		}
	}
	return bad
}
