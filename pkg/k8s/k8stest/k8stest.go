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

// Package k8stest provides fake clusters for package tests.
package k8stest

import (
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/NVIDIA/template-job-agent/pkg/k8s/client"
)

// Namespace is the project every fake session works in.
const Namespace = "batch"

// Resources known to the fake mapper and dynamic client.
var (
	JobGVR               = schema.GroupVersionResource{Group: "batch", Version: "v1", Resource: "jobs"}
	ConfigMapGVR         = schema.GroupVersionResource{Version: "v1", Resource: "configmaps"}
	TemplateGVR          = schema.GroupVersionResource{Group: "template.openshift.io", Version: "v1", Resource: "templates"}
	ProcessedTemplateGVR = schema.GroupVersionResource{Group: "template.openshift.io", Version: "v1", Resource: "processedtemplates"}
)

// Cluster bundles the fakes behind a session.
type Cluster struct {
	Session   *client.Session
	Clientset *fake.Clientset
	Dynamic   *dynamicfake.FakeDynamicClient
}

// NewCluster returns a session backed by fakes. Unstructured objects are
// seeded into the dynamic client, everything else into the clientset.
func NewCluster(objs ...runtime.Object) *Cluster {
	var typed, dynamic []runtime.Object
	for _, o := range objs {
		if _, ok := o.(*unstructured.Unstructured); ok {
			dynamic = append(dynamic, o)
		} else {
			typed = append(typed, o)
		}
	}

	cs := fake.NewClientset(typed...)
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(runtime.NewScheme(),
		map[schema.GroupVersionResource]string{
			JobGVR:               "JobList",
			ConfigMapGVR:         "ConfigMapList",
			TemplateGVR:          "TemplateList",
			ProcessedTemplateGVR: "TemplateList",
		},
		dynamic...,
	)

	return &Cluster{
		Session:   client.NewSessionForClients(Namespace, cs, dyn, NewMapper()),
		Clientset: cs,
		Dynamic:   dyn,
	}
}

// NewMapper returns a REST mapper knowing Job, ConfigMap, Pod and Template.
func NewMapper() meta.RESTMapper {
	m := meta.NewDefaultRESTMapper(nil)
	m.Add(schema.GroupVersionKind{Group: "batch", Version: "v1", Kind: "Job"}, meta.RESTScopeNamespace)
	m.Add(schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}, meta.RESTScopeNamespace)
	m.Add(schema.GroupVersionKind{Version: "v1", Kind: "Pod"}, meta.RESTScopeNamespace)
	m.Add(schema.GroupVersionKind{Group: "template.openshift.io", Version: "v1", Kind: "Template"}, meta.RESTScopeNamespace)
	return m
}

// Job returns an unstructured batch/v1 Job with one container per name.
func Job(name string, containers ...string) *unstructured.Unstructured {
	cs := make([]any, 0, len(containers))
	for _, c := range containers {
		cs = append(cs, map[string]any{"name": c, "image": "registry.example.com/batch/" + c + ":1.0"})
	}

	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "batch/v1",
		"kind":       "Job",
		"metadata": map[string]any{
			"name":      name,
			"namespace": Namespace,
		},
		"spec": map[string]any{
			"template": map[string]any{
				"spec": map[string]any{
					"restartPolicy": "Never",
					"containers":    cs,
				},
			},
		},
	}}
}

// WithStatus sets status fields on a copy of job.
func WithStatus(job *unstructured.Unstructured, status map[string]any) *unstructured.Unstructured {
	out := job.DeepCopy()
	out.Object["status"] = status
	return out
}

// Timestamp formats t the way the API server does.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Pod returns a pod labeled for job with the given start time and
// container statuses. Containers are derived from the statuses.
func Pod(name, job string, start time.Time, statuses ...corev1.ContainerStatus) *corev1.Pod {
	containers := make([]corev1.Container, 0, len(statuses))
	for _, s := range statuses {
		containers = append(containers, corev1.Container{Name: s.Name, Image: "registry.example.com/batch/" + s.Name + ":1.0"})
	}

	st := metav1.NewTime(start)
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:              name,
			Namespace:         Namespace,
			Labels:            map[string]string{"job-name": job},
			CreationTimestamp: st,
		},
		Spec: corev1.PodSpec{Containers: containers},
		Status: corev1.PodStatus{
			Phase:             corev1.PodRunning,
			StartTime:         &st,
			ContainerStatuses: statuses,
		},
	}
}

// Waiting returns a container status in waiting state.
func Waiting(name, reason string) corev1.ContainerStatus {
	return corev1.ContainerStatus{
		Name:  name,
		State: corev1.ContainerState{Waiting: &corev1.ContainerStateWaiting{Reason: reason}},
	}
}

// Running returns a container status in running state.
func Running(name string) corev1.ContainerStatus {
	return corev1.ContainerStatus{
		Name:  name,
		State: corev1.ContainerState{Running: &corev1.ContainerStateRunning{}},
	}
}

// Terminated returns a container status in terminated state.
func Terminated(name, reason string, exitCode int32) corev1.ContainerStatus {
	return corev1.ContainerStatus{
		Name:  name,
		State: corev1.ContainerState{Terminated: &corev1.ContainerStateTerminated{Reason: reason, ExitCode: exitCode}},
	}
}

// ExpandFunc expands a raw Template object, see template.Expand.
type ExpandFunc func(tpl *unstructured.Unstructured, params map[string]string) ([]*unstructured.Unstructured, error)

// ProcessTemplates makes the fake API server answer processedtemplates
// requests by running expand on the posted template.
func (c *Cluster) ProcessTemplates(expand ExpandFunc) {
	c.Dynamic.PrependReactor("create", "processedtemplates", func(action k8stesting.Action) (bool, runtime.Object, error) {
		in, ok := action.(k8stesting.CreateAction).GetObject().(*unstructured.Unstructured)
		if !ok {
			return true, nil, fmt.Errorf("unexpected object type %T", action.(k8stesting.CreateAction).GetObject())
		}

		objs, err := expand(in, nil)
		if err != nil {
			return true, nil, err
		}

		out := in.DeepCopy()
		items := make([]any, 0, len(objs))
		for _, o := range objs {
			items = append(items, o.Object)
		}
		out.Object["objects"] = items
		return true, out, nil
	})
}

// Template returns a raw Template object with the given parameter defaults
// and objects.
func Template(name string, params map[string]string, objects ...*unstructured.Unstructured) *unstructured.Unstructured {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ps := make([]any, 0, len(keys))
	for _, k := range keys {
		ps = append(ps, map[string]any{"name": k, "value": params[k]})
	}

	objs := make([]any, 0, len(objects))
	for _, o := range objects {
		objs = append(objs, o.DeepCopy().Object)
	}

	return &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "template.openshift.io/v1",
		"kind":       "Template",
		"metadata": map[string]any{
			"name":      name,
			"namespace": Namespace,
		},
		"parameters": ps,
		"objects":    objs,
	}}
}
