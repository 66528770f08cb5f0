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

package program

import (
	"context"

	"github.com/Iluvatar/unix74/internal/task"
)

// True always exits 0; False always exits 1. Trivial, but they give the
// boot and fork/wait end-to-end tests a program with a known, instant
// exit code and no side effects.
type True struct{}

func (p *True) Main(ctx context.Context, h *task.Handle, argv []string) int { return 0 }

type False struct{}

func (p *False) Main(ctx context.Context, h *task.Handle, argv []string) int { return 1 }
