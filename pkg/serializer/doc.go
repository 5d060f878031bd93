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

// Package serializer writes run reports as JSON, YAML or a flattened table.
//
// Destinations:
//   - stdout, when no path is given
//   - a file path
//   - cm://namespace/name, a ConfigMap written with server-side apply
//
// Usage:
//
//	w := serializer.NewFileWriterOrStdout(serializer.FormatYAML, "cm://batch/tjagent-report", session)
//	if c, ok := w.(serializer.Closer); ok {
//		defer c.Close()
//	}
//	if err := w.Serialize(ctx, report); err != nil {
//		return err
//	}
//
// The table format flattens nested values into dotted keys, one row each.
package serializer
