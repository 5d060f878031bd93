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
	"context"
	stderrors "errors"
	"net"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	utilnet "k8s.io/apimachinery/pkg/util/net"
)

// errorClass is how a read error affects the wait.
type errorClass int

const (
	// classFatal ends the wait with the error.
	classFatal errorClass = iota
	// classNotFound means the object does not exist (yet or anymore).
	classNotFound
	// classTimeout ends the wait as timed out.
	classTimeout
	// classTransient is logged and the read is retried on the next tick.
	classTransient
)

func (c errorClass) String() string {
	switch c {
	case classNotFound:
		return "not-found"
	case classTimeout:
		return "timeout"
	case classTransient:
		return "transient"
	default:
		return "fatal"
	}
}

func classifyError(err error) errorClass {
	if err == nil {
		return classFatal
	}

	var netErr net.Error
	switch {
	case apierrors.IsNotFound(err):
		return classNotFound
	case apierrors.IsTimeout(err),
		apierrors.IsServerTimeout(err),
		stderrors.Is(err, context.DeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout():
		return classTimeout
	case apierrors.IsTooManyRequests(err),
		apierrors.IsServiceUnavailable(err),
		apierrors.IsInternalError(err),
		apierrors.IsUnexpectedServerError(err),
		utilnet.IsConnectionReset(err),
		utilnet.IsConnectionRefused(err),
		utilnet.IsProbableEOF(err):
		return classTransient
	default:
		return classFatal
	}
}
