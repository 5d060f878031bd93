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

package pod

import (
	corev1 "k8s.io/api/core/v1"
)

// State is the tagged state of one container.
type State int

const (
	StateUnknown State = iota
	StateWaiting
	StateRunning
	StateTerminated
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reasons copied from the kubelet. They cannot resolve without a change to
// the job, so waiting stops as soon as one is observed.
const (
	ReasonErrImagePull               = "ErrImagePull"
	ReasonImagePullBackOff           = "ImagePullBackOff"
	ReasonCrashLoopBackOff           = "CrashLoopBackOff"
	ReasonInvalidImageName           = "InvalidImageName"
	ReasonCreateContainerConfigError = "CreateContainerConfigError"

	// ReasonCompleted is the terminated reason of a clean exit.
	ReasonCompleted = "Completed"
)

var unacceptable = map[string]bool{
	ReasonErrImagePull:               true,
	ReasonImagePullBackOff:           true,
	ReasonCrashLoopBackOff:           true,
	ReasonInvalidImageName:           true,
	ReasonCreateContainerConfigError: true,
}

// Unacceptable reports whether reason aborts the wait immediately.
func Unacceptable(reason string) bool {
	return unacceptable[reason]
}

// ImagePullFailure reports whether reason is caused by the image reference.
func ImagePullFailure(reason string) bool {
	return reason == ReasonErrImagePull || reason == ReasonImagePullBackOff || reason == ReasonInvalidImageName
}

// ContainerStatus is the classified state of one container of a pod.
type ContainerStatus struct {
	Pod       string `json:"pod" yaml:"pod"`
	Container string `json:"container" yaml:"container"`
	Init      bool   `json:"init,omitempty" yaml:"init,omitempty"`
	Image     string `json:"image,omitempty" yaml:"image,omitempty"`
	State     State  `json:"-" yaml:"-"`
	Reason    string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
	ExitCode  int32  `json:"exitCode,omitempty" yaml:"exitCode,omitempty"`
}

// Unacceptable reports whether the container is in a state that cannot
// recover on its own.
func (c ContainerStatus) Unacceptable() bool {
	return Unacceptable(c.Reason)
}

// Classify returns the state of every init and regular container of pod.
// Each state is inspected in the order waiting, terminated, running and the
// first one present wins. Pods that already succeeded yield nothing.
func Classify(pod *corev1.Pod) []ContainerStatus {
	if pod == nil || pod.Status.Phase == corev1.PodSucceeded {
		return nil
	}

	out := make([]ContainerStatus, 0, len(pod.Status.InitContainerStatuses)+len(pod.Status.ContainerStatuses))
	for _, s := range pod.Status.InitContainerStatuses {
		out = append(out, classify(pod.Name, s, true))
	}
	for _, s := range pod.Status.ContainerStatuses {
		out = append(out, classify(pod.Name, s, false))
	}
	return out
}

func classify(pod string, s corev1.ContainerStatus, init bool) ContainerStatus {
	cs := ContainerStatus{
		Pod:       pod,
		Container: s.Name,
		Init:      init,
		Image:     s.Image,
	}

	switch st := s.State; {
	case st.Waiting != nil:
		cs.State = StateWaiting
		cs.Reason = st.Waiting.Reason
		cs.Message = st.Waiting.Message
	case st.Terminated != nil:
		cs.State = StateTerminated
		cs.Reason = st.Terminated.Reason
		cs.Message = st.Terminated.Message
		cs.ExitCode = st.Terminated.ExitCode
	case st.Running != nil:
		cs.State = StateRunning
		cs.Reason = "Running"
	default:
		cs.State = StateUnknown
	}
	return cs
}

// FirstUnacceptable returns the first container of pods in an unacceptable
// state.
func FirstUnacceptable(pods []corev1.Pod) (ContainerStatus, bool) {
	for i := range pods {
		for _, cs := range Classify(&pods[i]) {
			if cs.Unacceptable() {
				return cs, true
			}
		}
	}
	return ContainerStatus{}, false
}
