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

// Init runs as pid 0 — boot.go starts it directly on the swapper's own
// Handle, per the original's pid-numbering contract — and forks the
// login shell (becoming pid 1) as its child, restarting it whenever it
// exits. The original kernel's startup() forked Sh directly as swapper's
// only child; Init adds the respawn loop on top of that behavior.
type Init struct{}

func (p *Init) Main(ctx context.Context, h *task.Handle, argv []string) int {
	for {
		select {
		case <-ctx.Done():
			return 0
		default:
		}

		child, err := h.Fork("sh", "sh", nil, h.Env)
		if err != nil {
			return 1
		}
		if _, err := h.Waitpid(child); err != nil {
			return 1
		}
	}
}
