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

// Package errno defines the kernel's closed set of error codes and the
// typed error handlers raise to produce them.
package errno

import "fmt"

// Errno is one of a fixed set of kernel error codes. It is never extended
// at runtime; the dispatcher maps anything unexpected to UNSPECIFIED or
// PANIC rather than growing the set.
type Errno int

const (
	NONE Errno = iota
	EPERM
	EACCES
	ENOENT
	EEXIST
	EISDIR
	ENOTDIR
	EINVAL
	ENOSYS
	ECHILD
	ESRCH
	EXDEV
	ENOEXEC
	EINTR
	EBADF
	UNSPECIFIED
	// EKILLED and PANIC are internal-only: no handler raises them
	// directly. The dispatcher produces PANIC for a recovered panic;
	// nothing in the kernel produces EKILLED.
	EKILLED
	PANIC
)

var names = map[Errno]string{
	NONE:        "NONE",
	EPERM:       "EPERM",
	EACCES:      "EACCES",
	ENOENT:      "ENOENT",
	EEXIST:      "EEXIST",
	EISDIR:      "EISDIR",
	ENOTDIR:     "ENOTDIR",
	EINVAL:      "EINVAL",
	ENOSYS:      "ENOSYS",
	ECHILD:      "ECHILD",
	ESRCH:       "ESRCH",
	EXDEV:       "EXDEV",
	ENOEXEC:     "ENOEXEC",
	EINTR:       "EINTR",
	EBADF:       "EBADF",
	UNSPECIFIED: "UNSPECIFIED",
	EKILLED:     "EKILLED",
	PANIC:       "PANIC",
}

func (e Errno) String() string {
	if s, ok := names[e]; ok {
		return s
	}
	return fmt.Sprintf("Errno(%d)", int(e))
}

// KernelError is the error type every syscall handler raises to signal a
// specific errno. Anything else escaping a handler is converted by the
// dispatcher to UNSPECIFIED (or PANIC for a recovered panic).
type KernelError struct {
	Op  string
	Err Errno
}

func New(op string, err Errno) *KernelError {
	return &KernelError{Op: op, Err: err}
}

func (e *KernelError) Error() string {
	if e.Op == "" {
		return e.Err.String()
	}
	return fmt.Sprintf("%s: %s", e.Err, e.Op)
}

// As reports the errno carried by err, or UNSPECIFIED if err is not a
// *KernelError (and NONE if err is nil).
func As(err error) Errno {
	if err == nil {
		return NONE
	}
	var ke *KernelError
	if ok := asKernelError(err, &ke); ok {
		return ke.Err
	}
	return UNSPECIFIED
}

func asKernelError(err error, target **KernelError) bool {
	ke, ok := err.(*KernelError)
	if !ok {
		return false
	}
	*target = ke
	return true
}
