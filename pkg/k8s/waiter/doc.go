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

// Package waiter supervises a created object until it reaches a terminal
// state.
//
// The wait is a small state machine:
//
//	AwaitingCreation -> Polling -> Succeeded | Failed | TimedOut | NotFound
//
// A freshly created object may not be readable yet, so it is read a bounded
// number of times before it is declared NotFound. While polling, the object
// is read once per interval. Read errors are classified: client and server
// timeouts end the wait as TimedOut, a missing object as NotFound,
// throttling and connection problems are retried, anything else is returned.
//
// Jobs succeed when a pod succeeded or the Complete condition is set, and
// fail when a pod failed, the Failed condition is set, or one of the job's
// current pods shows a container reason that cannot recover (see
// pod.Unacceptable).
//
// On success the job logs are collected and the run duration is computed
// from the job timestamps. Every other outcome carries the diagnosis of the
// job's pods.
//
// Time is read from an injectable clock:
//
//	w := waiter.New(session, waiter.WithClock(fakeClock))
//	res, err := w.Wait(ctx, ref, 60*time.Second)
package waiter
