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

// Package program is the boundary fork/execve dispatch through: a fixed
// registry of identifier -> constructor, standing in for the real kernel's
// on-disk executables. User binaries here are deliberately thin — just
// enough to drive the boot sequence and exercise the syscalls they wrap.
package program

import (
	"context"
	"fmt"

	"github.com/Iluvatar/unix74/internal/task"
)

// Program is what fork/execve ultimately run. Main returns the process
// exit code; ctx is cancelled when the kernel shuts down.
type Program interface {
	Main(ctx context.Context, h *task.Handle, argv []string) int
}

// Registry resolves a stable program identifier (as stored in a
// vfs.BinaryData payload) to a fresh Program instance.
type Registry struct {
	constructors map[string]func() Program
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]func() Program)}
}

func (r *Registry) Register(identifier string, ctor func() Program) {
	r.constructors[identifier] = ctor
}

// New resolves identifier through the registry. An unknown identifier
// returns a plain (non-errno) error, which the kernel's fork handler
// reports as ENOEXEC. Every BinaryData the boot fixtures create names a
// registered identifier.
func (r *Registry) New(identifier string) (Program, error) {
	ctor, ok := r.constructors[identifier]
	if !ok {
		return nil, fmt.Errorf("program: unregistered identifier %q", identifier)
	}
	return ctor(), nil
}

// Version is the fixed version string stamped into every binary's content
// hash; this simulation never ships more than one build of each program.
const Version = "1.0"

// Standard registers the built-in programs (init, sh, cat, ls, true,
// false) sufficient to drive boot and the spec's end-to-end scenarios.
func Standard() *Registry {
	r := NewRegistry()
	r.Register("init", func() Program { return &Init{} })
	r.Register("sh", func() Program { return &Sh{} })
	r.Register("cat", func() Program { return &Cat{} })
	r.Register("ls", func() Program { return &Ls{} })
	r.Register("true", func() Program { return &True{} })
	r.Register("false", func() Program { return &False{} })
	return r
}
