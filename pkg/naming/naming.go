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

// Package naming normalizes user supplied names into cluster-legal object names.
package naming

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the longest name accepted for labels and most objects.
const DefaultMaxLength = 63

var replacer = strings.NewReplacer(
	"_", "-",
	" ", "-",
	".", "-",
	"/", "-",
)

// Canonical lowercases name, replaces '_', ' ', '.' and '/' with '-' after
// trimming surrounding whitespace, and truncates the result to at most maxLen bytes on a rune boundary.
// A non-positive maxLen selects DefaultMaxLength. The function is total and
// idempotent. The result is not guaranteed to be a valid DNS label: truncation
// may leave a trailing '-', and characters outside the replaced set are kept.
func Canonical(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}

	s := replacer.Replace(strings.ToLower(strings.TrimSpace(name)))
	if len(s) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = strings.TrimSpace(s[:cut])
	}
	return s
}

// IsLower reports whether s contains no upper case letters.
func IsLower(s string) bool {
	return strings.ToLower(s) == s
}
