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
	"context"

	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/task"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// Boot mounts root as the absolute root volume, installs pid 0 (swapper,
// grounded on unix.py's startup()), mounts dev at /dev, and starts the
// "init" program on the swapper's own handle, so init runs as pid 0. It
// must be called before Run starts consuming requests, but
// the init goroutine it launches may safely issue syscalls immediately —
// the shared request channel is buffered, so it blocks on its own reply
// channel rather than on the send.
func (k *Kernel) Boot(ctx context.Context, root, dev *vfs.Volume) error {
	k.runCtx = ctx
	k.VFS.SetRoot(root)

	swapperPid := k.Processes.ClaimNextPid()
	k.swapperPid = swapperPid
	swapper := &proc.Process{
		Pid:        swapperPid,
		Ppid:       swapperPid,
		Command:    "swapper",
		RealUid:    0,
		RealGid:    0,
		EUid:       0,
		EGid:       0,
		CurrentDir: root.Root(),
		Env:        map[string]string{},
		Status:     proc.RUNNING,
		FdTable:    make(map[proc.FD]*proc.ProcessFileDescriptor),
		Children:   make(map[proc.PID]struct{}),
		TTY:        -1,
	}
	k.Processes.Add(swapper)

	superuser := vfs.PathContext{CurrentDir: root.Root(), Who: perm.Principal{EUID: 0, EGID: 0}}
	devMountPoint, err := k.VFS.Traverse(superuser, "/dev", vfs.GET)
	if err != nil {
		return err
	}
	k.VFS.Mount(devMountPoint, dev)

	h := task.NewHandle(swapperPid, swapper.Env, k.requests)
	return k.StartTask(ctx, "init", h, nil)
}
