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

// Package logging configures the slog default logger of the agent.
//
// Records go to stderr as JSON or key=value text and carry the module and
// version attributes. Debug level adds the source location.
//
// Accepted level names (case-insensitive):
//   - debug
//   - info (default)
//   - warn, warning
//   - error
//   - critical, fatal
//
// LevelCritical sits above slog.LevelError and is rendered as CRITICAL. The
// waiter logs the final failure of a supervised object at this level, so
// "critical" keeps only the outcome lines of failed runs.
//
// Usage:
//
//	logging.SetDefaultLogger("tjagent", version, "info", true)
//	slog.Info("job created", "object", "Job/batch-v1")
//
// The CLI resolves the level from --log-level, TJAGENT_LOG_LEVEL or
// LOG_LEVEL, in that order.
package logging
