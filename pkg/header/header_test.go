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
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	now := time.Date(2026, 1, 2, 4, 4, 5, 0, time.FixedZone("CET", 3600))
	h := New(KindSubmissionReport, now, WithVersion("v1.2.3"), WithRunID("run-1"), WithMetadata("empty", ""))

	if h.Kind != KindSubmissionReport || h.APIVersion != APIVersion {
		t.Errorf("unexpected type info: %+v", h)
	}
	want := map[string]string{
		MetadataTimestamp: "2026-01-02T03:04:05Z",
		MetadataVersion:   "v1.2.3",
		MetadataRunID:     "run-1",
	}
	if len(h.Metadata) != len(want) {
		t.Fatalf("Metadata = %v, want %v", h.Metadata, want)
	}
	for k, v := range want {
		if h.Metadata[k] != v {
			t.Errorf("Metadata[%q] = %q, want %q", k, h.Metadata[k], v)
		}
	}
}

func TestInitResetsMetadata(t *testing.T) {
	h := Header{Metadata: map[string]string{"stale": "yes"}}
	h.Init(KindSubmissionReport, time.Now())
	if _, ok := h.Metadata["stale"]; ok {
		t.Error("Init should replace existing metadata")
	}
}

func TestKindIsValid(t *testing.T) {
	if !KindSubmissionReport.IsValid() {
		t.Error("KindSubmissionReport should be valid")
	}
	if Kind("Snapshot").IsValid() {
		t.Error("unknown kind should be invalid")
	}
	if KindSubmissionReport.String() != "SubmissionReport" {
		t.Errorf("String() = %q", KindSubmissionReport.String())
	}
}
