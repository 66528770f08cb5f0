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
	"sort"
	"strings"

	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/task"
)

// Ls lists the entries of each named directory (or "." with none given),
// one name per line, sorted. Grounded on usr/ls.py's Ls.run, trimmed of
// the -l/-g/-t flag handling since no program here needs it.
type Ls struct{}

func (p *Ls) Main(ctx context.Context, h *task.Handle, argv []string) int {
	paths := argv
	if len(paths) == 0 {
		paths = []string{"."}
	}

	status := 0
	for i, path := range paths {
		fd, err := h.Open(path, proc.READ)
		if err != nil {
			h.Write(2, []byte("ls: "+path+": not found\n"))
			status = 1
			continue
		}

		entries, err := h.Getdents(fd)
		h.Close(fd)
		if err != nil {
			h.Write(2, []byte("ls: "+path+": not a directory\n"))
			status = 1
			continue
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		sort.Strings(names)

		if len(paths) > 1 {
			h.Write(1, []byte(path+":\n"))
		}
		h.Write(1, []byte(strings.Join(names, "\n")+"\n"))
		if i < len(paths)-1 {
			h.Write(1, []byte("\n"))
		}
	}
	return status
}
