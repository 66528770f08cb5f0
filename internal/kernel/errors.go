// Copyright 2024 The unix74 Authors.
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

package kernel

import (
	"fmt"

	"github.com/Iluvatar/unix74/internal/errno"
)

// panicErr converts a recovered panic into errno.PANIC, matching
// unix.py's bare `except Exception` catch-all that maps any unexpected
// fault to a fatal, internal-only errno.
func panicErr(r any) error {
	return errno.New(fmt.Sprintf("%v", r), errno.PANIC)
}

// asKernelError normalizes any non-nil error that isn't already a typed
// kernel error to UNSPECIFIED, matching unix.py's `except Exception` for
// faults that aren't a KernelError.
func asKernelError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*errno.KernelError); ok {
		return err
	}
	return errno.New(err.Error(), errno.UNSPECIFIED)
}

func errnoLabel(err error) string {
	return errno.As(err).String()
}
