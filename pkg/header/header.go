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

package header

import (
	"time"
)

// APIVersion is the schema version of every document tjagent writes.
const APIVersion = "tjagent.nvidia.com/v1alpha1"

// Kind names the document type.
type Kind string

const (
	// KindSubmissionReport describes one template submission and its wait results.
	KindSubmissionReport Kind = "SubmissionReport"
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindSubmissionReport
}

// Metadata keys set by Init.
const (
	MetadataTimestamp = "timestamp"
	MetadataVersion   = "version"
	MetadataRunID     = "run-id"
)

// Header carries Kubernetes-style type information in front of a document.
type Header struct {
	Kind       Kind              `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string            `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Option configures a Header.
type Option func(*Header)

// WithMetadata adds a metadata key-value pair. Empty values are skipped.
func WithMetadata(key, value string) Option {
	return func(h *Header) {
		if value == "" {
			return
		}
		if h.Metadata == nil {
			h.Metadata = make(map[string]string)
		}
		h.Metadata[key] = value
	}
}

// WithVersion records the version of the tool that wrote the document.
func WithVersion(version string) Option {
	return WithMetadata(MetadataVersion, version)
}

// WithRunID records the run the document belongs to.
func WithRunID(id string) Option {
	return WithMetadata(MetadataRunID, id)
}

// Init sets kind, the current APIVersion and the creation timestamp, then
// applies opts.
func (h *Header) Init(kind Kind, now time.Time, opts ...Option) {
	h.Kind = kind
	h.APIVersion = APIVersion
	h.Metadata = map[string]string{
		MetadataTimestamp: now.UTC().Format(time.RFC3339),
	}
	for _, o := range opts {
		o(h)
	}
}

// New returns an initialized Header.
func New(kind Kind, now time.Time, opts ...Option) Header {
	var h Header
	h.Init(kind, now, opts...)
	return h
}
