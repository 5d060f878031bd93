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

// Package joblog prints the container logs of an existing job.
//
// Each container is rendered as a block:
//
//	pod/my-job-x7k2p container/main
//	================================================================================
//	<log text>
//	================================================================================
//
// A requested container missing from every pod of the job makes FetchLogs
// report false together with the blocks collected before it.
package joblog
