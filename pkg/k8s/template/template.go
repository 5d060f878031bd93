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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"github.com/NVIDIA/template-job-agent/pkg/errors"
	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
	"github.com/NVIDIA/template-job-agent/pkg/naming"
)

// OpenShift template API resources.
var (
	TemplateGVR          = schema.GroupVersionResource{Group: "template.openshift.io", Version: "v1", Resource: "templates"}
	ProcessedTemplateGVR = schema.GroupVersionResource{Group: "template.openshift.io", Version: "v1", Resource: "processedtemplates"}
)

// Annotations added to every created object.
const (
	AnnotationRunID    = "template-job-agent.nvidia.com/run-id"
	AnnotationTemplate = "template-job-agent.nvidia.com/template"
)

// maxSuggestionDistance bounds the edit distance of "did you mean" hints.
const maxSuggestionDistance = 3

// Parameter is one declared template parameter.
type Parameter struct {
	Name     string
	Value    string
	Required bool
	Generate string
}

// Template is a parameterized bundle of object specifications.
type Template struct {
	Name       string
	Parameters []Parameter

	// Source is "cluster" for templates read from the API, otherwise the file path.
	Source string

	raw *unstructured.Unstructured
}

// Local reports whether the template was loaded from a file.
func (t *Template) Local() bool {
	return t.Source != sourceCluster
}

// ObjectCount returns the number of unprocessed objects in the template.
func (t *Template) ObjectCount() int {
	items, _, _ := unstructured.NestedSlice(t.raw.Object, "objects")
	return len(items)
}

const sourceCluster = "cluster"

// Option configures a Processor.
type Option func(*Processor)

// WithLocalProcessing substitutes parameters in the agent instead of asking
// the API server.
func WithLocalProcessing(local bool) Option {
	return func(p *Processor) {
		p.local = local
	}
}

// WithRunID stamps created objects with the given run id.
func WithRunID(id string) Option {
	return func(p *Processor) {
		p.runID = id
	}
}

// Processor fetches, expands and creates templates in the session namespace.
type Processor struct {
	session *client.Session
	local   bool
	runID   string
}

// NewProcessor returns a Processor working on session.
func NewProcessor(session *client.Session, opts ...Option) *Processor {
	p := &Processor{session: session}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Fetch reads the named template from the cluster. Upper case names are
// lowercased with a warning.
func (p *Processor) Fetch(ctx context.Context, name string) (*Template, error) {
	if !naming.IsLower(name) {
		slog.Warn("template name should be lowercase", "template", name)
		name = strings.ToLower(name)
	}

	u, err := p.session.Dynamic.Resource(TemplateGVR).Namespace(p.session.Namespace).
		Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			msg := fmt.Sprintf("template %q not found in project %q", name, p.session.Namespace)
			if s := p.suggest(ctx, name); s != "" {
				msg = fmt.Sprintf("%s (did you mean %q?)", msg, s)
			}
			return nil, errors.WrapWithContext(errors.ErrCodeNotFound, msg, err,
				map[string]any{"template": name, "namespace": p.session.Namespace})
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, fmt.Sprintf("unable to get template %s", name), err)
	}

	t, err := fromUnstructured(u, sourceCluster)
	if err != nil {
		return nil, err
	}

	slog.Info("found template on server",
		"kind", u.GetKind(),
		"template", t.Name,
		"objects", t.ObjectCount())
	return t, nil
}

// suggest returns the closest existing template name, or "" when none is close.
func (p *Processor) suggest(ctx context.Context, name string) string {
	list, err := p.session.Dynamic.Resource(TemplateGVR).Namespace(p.session.Namespace).
		List(ctx, metav1.ListOptions{})
	if err != nil {
		slog.Debug("unable to list templates for suggestion", "error", err)
		return ""
	}

	names := make([]string, 0, len(list.Items))
	for _, it := range list.Items {
		names = append(names, it.GetName())
	}
	return closest(name, names)
}

func closest(name string, candidates []string) string {
	sort.Strings(candidates)

	best, bestDist := "", maxSuggestionDistance+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Load reads a template from a YAML or JSON file.
func Load(path string) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, fmt.Sprintf("unable to read template file %s", path), err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, fmt.Sprintf("unable to parse template file %s", path), err)
	}

	// Round trip through JSON so numbers become int64/float64 as the
	// unstructured helpers expect.
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, fmt.Sprintf("unable to convert template file %s", path), err)
	}

	u := &unstructured.Unstructured{}
	if err := u.UnmarshalJSON(js); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, fmt.Sprintf("template file %s is not a valid object", path), err)
	}

	t, err := fromUnstructured(u, path)
	if err != nil {
		return nil, err
	}

	slog.Info("loaded template from file", "template", t.Name, "path", path, "objects", t.ObjectCount())
	return t, nil
}

func fromUnstructured(u *unstructured.Unstructured, source string) (*Template, error) {
	if u.GetKind() != "Template" {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("expected kind Template, got %q", u.GetKind()),
			map[string]any{"name": u.GetName(), "source": source})
	}

	raw := u.DeepCopy()
	// The template is processed in the session namespace, not where it was stored.
	raw.SetNamespace("")
	raw.SetResourceVersion("")
	raw.SetUID("")

	t := &Template{
		Name:   raw.GetName(),
		Source: source,
		raw:    raw,
	}

	params, _, _ := unstructured.NestedSlice(raw.Object, "parameters")
	for _, it := range params {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		p := Parameter{}
		p.Name, _ = m["name"].(string)
		p.Value, _ = m["value"].(string)
		p.Required, _ = m["required"].(bool)
		p.Generate, _ = m["generate"].(string)
		if p.Name != "" {
			t.Parameters = append(t.Parameters, p)
		}
	}
	return t, nil
}
