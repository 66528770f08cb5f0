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

	"github.com/Iluvatar/unix74/internal/errno"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/task"
)

// Cat streams each named file to stdout, or stdin when called with no
// arguments. Grounded on usr/cat.py's Cat.run.
type Cat struct{}

func (p *Cat) Main(ctx context.Context, h *task.Handle, argv []string) int {
	if len(argv) == 0 {
		return p.drain(h, 0)
	}

	status := 0
	for _, file := range argv {
		if file == "-" {
			if code := p.drain(h, 0); code != 0 {
				status = code
			}
			continue
		}

		fd, err := h.Open(file, proc.READ)
		if err != nil {
			switch errno.As(err) {
			case errno.EACCES:
				h.Write(2, []byte("cat: "+file+": Permission denied\n"))
			case errno.ENOENT:
				h.Write(2, []byte("cat: "+file+": No such file or directory\n"))
			default:
				h.Write(2, []byte("cat: "+file+": error\n"))
			}
			status = 1
			continue
		}
		p.copyOut(h, fd)
		h.Close(fd)
	}
	return status
}

func (p *Cat) drain(h *task.Handle, fd proc.FD) int {
	p.copyOut(h, fd)
	return 0
}

func (p *Cat) copyOut(h *task.Handle, fd proc.FD) {
	for {
		data, err := h.Read(fd, 1024)
		if err != nil || len(data) == 0 {
			return
		}
		h.Write(1, data)
	}
}
