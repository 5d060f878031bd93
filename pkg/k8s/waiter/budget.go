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

package waiter

import (
	"time"
)

// Budget tracks the wait deadline of one object. Termination compares
// elapsed wall-clock time with the timeout; the coarse remaining value only
// feeds progress logs.
type Budget struct {
	start    time.Time
	timeout  time.Duration
	step     time.Duration
	lastStep time.Time
	coarse   time.Duration
}

// NewBudget starts a budget of timeout at start. Every step of wall-clock
// time the coarse remaining value drops by step.
func NewBudget(start time.Time, timeout, step time.Duration) *Budget {
	return &Budget{
		start:    start,
		timeout:  timeout,
		step:     step,
		lastStep: start,
		coarse:   timeout,
	}
}

// Elapsed returns the time spent since the budget started.
func (b *Budget) Elapsed(now time.Time) time.Duration {
	return now.Sub(b.start)
}

// Left returns the exact time left, never negative.
func (b *Budget) Left(now time.Time) time.Duration {
	left := b.timeout - b.Elapsed(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the whole timeout has been spent.
func (b *Budget) Expired(now time.Time) bool {
	return b.Elapsed(now) >= b.timeout
}

// Deadline returns the absolute time the budget runs out.
func (b *Budget) Deadline() time.Time {
	return b.start.Add(b.timeout)
}

// Progress decrements the coarse remaining value once more than one step
// passed since the last decrement. It returns the new value and true when a
// progress line is due.
func (b *Budget) Progress(now time.Time) (time.Duration, bool) {
	if b.step <= 0 || now.Sub(b.lastStep) <= b.step {
		return b.coarse, false
	}
	b.coarse -= b.step
	if b.coarse < 0 {
		b.coarse = 0
	}
	b.lastStep = now
	return b.coarse, true
}
