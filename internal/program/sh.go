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
	"strings"

	"github.com/Iluvatar/unix74/internal/task"
)

// Sh is a minimal line-at-a-time shell: read up to 4096 bytes from stdin
// (one line when stdin is the console), fork the named program with the
// rest of the input as argv, wait for it, repeat.
// Grounded on usr/sh.py's Sh.run, trimmed to the programs this registry
// actually ships.
type Sh struct{}

func (p *Sh) Main(ctx context.Context, h *task.Handle, argv []string) int {
	for {
		select {
		case <-ctx.Done():
			return 0
		default:
		}

		if _, err := h.Write(1, []byte("$ ")); err != nil {
			return 1
		}

		line, err := h.Read(0, 4096)
		if err != nil {
			return 1
		}
		if len(line) == 0 {
			return 0
		}

		fields := strings.Fields(string(line))
		if len(fields) == 0 {
			continue
		}
		command, args := fields[0], fields[1:]

		child, err := h.Fork(command, command, args, h.Env)
		if err != nil {
			h.Write(1, []byte(command+": command not found\n"))
			continue
		}
		h.Waitpid(child)
	}
}
