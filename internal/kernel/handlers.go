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
	"strings"

	"github.com/Iluvatar/unix74/internal/errno"
	"github.com/Iluvatar/unix74/internal/logger"
	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/program"
	"github.com/Iluvatar/unix74/internal/sysreq"
	"github.com/Iluvatar/unix74/internal/task"
	"github.com/Iluvatar/unix74/internal/vfs"
)

func (k *Kernel) pathContext(p *proc.Process) vfs.PathContext {
	return vfs.PathContext{CurrentDir: p.CurrentDir, Who: p.Principal()}
}

// fork allocates a pid, a process table entry inheriting uid/gid/cwd/env
// from the parent, and starts the child program as a goroutine
// communicating over a fresh task.Handle, grounded on unix.py's fork.
func (k *Kernel) fork(pid proc.PID, c sysreq.ForkCall) (proc.PID, error) {
	parent, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}

	childPid := k.Processes.ClaimNextPid()
	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[k] = v
	}

	child := &proc.Process{
		Pid:        childPid,
		Ppid:       pid,
		Command:    c.Command,
		RealUid:    parent.RealUid,
		RealGid:    parent.RealGid,
		EUid:       parent.EUid,
		EGid:       parent.EGid,
		CurrentDir: parent.CurrentDir,
		Env:        env,
		Status:     proc.RUNNING,
		FdTable:    make(map[proc.FD]*proc.ProcessFileDescriptor),
		Children:   make(map[proc.PID]struct{}),
		TTY:        parent.TTY,
	}
	for fd, pfd := range parent.FdTable {
		k.Files.Retain(pfd.OpenFd)
		child.FdTable[fd] = &proc.ProcessFileDescriptor{ID: fd, OpenFd: pfd.OpenFd}
	}

	k.Processes.Add(child)
	if parent.Children == nil {
		parent.Children = make(map[proc.PID]struct{})
	}
	parent.Children[childPid] = struct{}{}

	h := task.NewHandle(childPid, env, k.requests)
	ctx := k.runCtx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := k.StartTask(ctx, c.Program, h, c.Argv); err != nil {
		k.Processes.Remove(childPid)
		delete(parent.Children, childPid)
		return 0, errno.New(c.Program, errno.ENOEXEC)
	}

	logger.Infof("fork: pid=%d ppid=%d command=%q", childPid, pid, c.Command)
	return childPid, nil
}

func (k *Kernel) createFd(pid proc.PID, inode *vfs.INode, flags proc.OpenFlags) (proc.FD, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}
	ofd := k.Files.Open(inode, flags)
	fdNum := p.ClaimNextFd()
	p.FdTable[fdNum] = &proc.ProcessFileDescriptor{ID: fdNum, OpenFd: ofd}

	if flags.Has(proc.TRUNCATE) {
		if err := inode.Data.Trunc(); err != nil {
			return 0, err
		}
		ofd.Offset = 0
	}
	return fdNum, nil
}

func (k *Kernel) open(pid proc.PID, c sysreq.OpenCall) (proc.FD, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}
	inode, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.GET)
	if err != nil {
		return 0, err
	}

	flags := c.Flags
	if flags.Has(proc.READ) {
		if err := perm.Access(p.Principal(), inode.Owner, inode.Group, inode.Permissions, perm.READ); err != nil {
			return 0, err
		}
	}
	if flags&(proc.WRITE|proc.APPEND|proc.CREATE|proc.TRUNCATE) != 0 {
		if inode.FileType == vfs.DIRECTORY {
			return 0, errno.New(c.Path, errno.EISDIR)
		}
		if err := perm.Access(p.Principal(), inode.Owner, inode.Group, inode.Permissions, perm.WRITE); err != nil {
			return 0, err
		}
		flags |= proc.WRITE
	}

	return k.createFd(pid, inode, flags)
}

func (k *Kernel) creat(pid proc.PID, c sysreq.CreatCall) (proc.FD, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}
	inode, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.CREATE)
	if err != nil {
		return 0, err
	}
	if inode.FileType == vfs.DIRECTORY {
		return 0, errno.New(c.Path, errno.EISDIR)
	}
	inode.Permissions = c.Permissions
	if err := perm.Access(p.Principal(), inode.Owner, inode.Group, inode.Permissions, perm.WRITE); err != nil {
		return 0, err
	}

	return k.createFd(pid, inode, proc.WRITE|proc.TRUNCATE)
}

func (k *Kernel) fdEntry(pid proc.PID, fd proc.FD) (*proc.Process, *proc.ProcessFileDescriptor, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return nil, nil, err
	}
	pfd, ok := p.FdTable[fd]
	if !ok {
		return nil, nil, errno.New("", errno.EBADF)
	}
	return p, pfd, nil
}

func (k *Kernel) lseek(pid proc.PID, c sysreq.LseekCall) (int64, error) {
	_, pfd, err := k.fdEntry(pid, c.Fd)
	if err != nil {
		return 0, err
	}
	ofd := pfd.OpenFd

	var newOffset int64
	switch c.Whence {
	case proc.SeekSet:
		newOffset = c.Offset
	case proc.SeekCurrent:
		newOffset = ofd.Offset + c.Offset
	case proc.SeekEnd:
		newOffset = ofd.Inode.Data.Size() + c.Offset
	default:
		return 0, errno.New("", errno.EINVAL)
	}
	if newOffset < 0 {
		return 0, errno.New("", errno.EINVAL)
	}
	ofd.Offset = newOffset
	return newOffset, nil
}

func (k *Kernel) read(pid proc.PID, c sysreq.ReadCall) ([]byte, error) {
	_, pfd, err := k.fdEntry(pid, c.Fd)
	if err != nil {
		return nil, err
	}
	ofd := pfd.OpenFd
	if !ofd.Mode.Has(proc.READ) {
		return nil, errno.New("", errno.EACCES)
	}
	data, err := ofd.Inode.Data.Read(c.Size, ofd.Offset)
	if err != nil {
		return nil, err
	}
	ofd.Offset += int64(len(data))
	return data, nil
}

func (k *Kernel) write(pid proc.PID, c sysreq.WriteCall) (int, error) {
	_, pfd, err := k.fdEntry(pid, c.Fd)
	if err != nil {
		return 0, err
	}
	ofd := pfd.OpenFd
	if !ofd.Mode.Has(proc.WRITE) {
		return 0, errno.New("", errno.EACCES)
	}

	var n int
	if ofd.Mode.Has(proc.APPEND) {
		n, err = ofd.Inode.Data.Append(c.Data)
		if err != nil {
			return 0, err
		}
		ofd.Offset = ofd.Inode.Data.Size()
	} else {
		n, err = ofd.Inode.Data.Write(c.Data, ofd.Offset)
		if err != nil {
			return 0, err
		}
		ofd.Offset += int64(n)
	}
	return n, nil
}

func (k *Kernel) close(pid proc.PID, c sysreq.CloseCall) error {
	p, pfd, err := k.fdEntry(pid, c.Fd)
	if err != nil {
		return err
	}
	k.Files.Release(pfd.OpenFd)
	delete(p.FdTable, c.Fd)
	return nil
}

func (k *Kernel) link(pid proc.PID, c sysreq.LinkCall) error {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return err
	}
	target, err := k.VFS.Traverse(k.pathContext(p), c.Target, vfs.GET)
	if err != nil {
		return err
	}
	if target.FileType == vfs.DIRECTORY {
		return errno.New(c.Target, errno.EISDIR)
	}

	parent, err := k.VFS.Traverse(k.pathContext(p), c.Alias, vfs.PARENT)
	if err != nil {
		return err
	}
	if parent.FilesystemId != target.FilesystemId {
		return errno.New("", errno.EXDEV)
	}

	if _, err := k.VFS.Traverse(k.pathContext(p), c.Alias, vfs.GET); err == nil {
		return errno.New(c.Alias, errno.EEXIST)
	} else if errno.As(err) != errno.ENOENT {
		return err
	}

	if err := perm.Access(p.Principal(), parent.Owner, parent.Group, parent.Permissions, perm.WRITE); err != nil {
		return err
	}

	dir, ok := parent.Data.(*vfs.DirectoryData)
	if !ok {
		return errno.New(c.Alias, errno.ENOTDIR)
	}
	leaf := lastPathComponent(c.Alias)
	if err := dir.AddChild(leaf, target.INumber); err != nil {
		return err
	}
	target.References++
	return nil
}

func (k *Kernel) unlink(pid proc.PID, c sysreq.UnlinkCall) error {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return err
	}
	parent, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.PARENT)
	if err != nil {
		return err
	}
	child, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.GET)
	if err != nil {
		return err
	}
	if child.FileType == vfs.DIRECTORY {
		return errno.New(c.Path, errno.EISDIR)
	}

	if err := perm.Access(p.Principal(), parent.Owner, parent.Group, parent.Permissions, perm.WRITE); err != nil {
		return err
	}

	dir, ok := parent.Data.(*vfs.DirectoryData)
	if !ok {
		return errno.New(c.Path, errno.ENOTDIR)
	}
	leaf := lastPathComponent(c.Path)
	if err := dir.RemoveChild(leaf); err != nil {
		return err
	}
	child.References--
	if child.References <= 0 {
		volume := k.VFS.Volumes[child.FilesystemId]
		volume.Remove(child.INumber)
	}
	return nil
}

func lastPathComponent(path string) string {
	trimmed := strings.TrimRight(path, "/")
	parts := strings.Split(trimmed, "/")
	return parts[len(parts)-1]
}

func (k *Kernel) getdents(pid proc.PID, c sysreq.GetdentsCall) ([]vfs.DirEntry, error) {
	_, pfd, err := k.fdEntry(pid, c.Fd)
	if err != nil {
		return nil, err
	}
	if pfd.OpenFd.Inode.FileType != vfs.DIRECTORY {
		return nil, errno.New("", errno.ENOTDIR)
	}
	dir, ok := pfd.OpenFd.Inode.Data.(*vfs.DirectoryData)
	if !ok {
		return nil, errno.New("", errno.ENOTDIR)
	}
	entries := dir.Entries()
	fsid := pfd.OpenFd.Inode.FilesystemId.String()
	for i := range entries {
		entries[i].FilesystemId = fsid
	}
	return entries, nil
}

func (k *Kernel) chdir(pid proc.PID, c sysreq.ChdirCall) error {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return err
	}
	inode, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.GET)
	if err != nil {
		return err
	}
	if inode.FileType != vfs.DIRECTORY {
		return errno.New(c.Path, errno.ENOTDIR)
	}
	if err := perm.Access(p.Principal(), inode.Owner, inode.Group, inode.Permissions, perm.EXEC); err != nil {
		return err
	}
	p.CurrentDir = inode
	return nil
}

func (k *Kernel) stat(pid proc.PID, c sysreq.StatCall) (task.Stat, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return task.Stat{}, err
	}
	inode, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.GET)
	if err != nil {
		return task.Stat{}, err
	}
	return task.Stat{
		INumber:      inode.INumber,
		Permissions:  inode.Permissions,
		FileType:     inode.FileType,
		Owner:        inode.Owner,
		Group:        inode.Group,
		Size:         inode.Data.Size(),
		FilesystemId: inode.FilesystemId.String(),
		DeviceNumber: inode.DeviceNumber,
		References:   inode.References,
	}, nil
}

func (k *Kernel) mount(pid proc.PID, c sysreq.MountCall) error {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return err
	}
	if p.EUid != 0 {
		return errno.New("", errno.EPERM)
	}
	inode, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.GET)
	if err != nil {
		return err
	}
	k.VFS.Mount(inode, c.Volume)
	logger.Infof("mount: %q -> volume %s", c.Path, c.Volume.UUID)
	return nil
}

func (k *Kernel) umount(pid proc.PID, c sysreq.UmountCall) error {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return err
	}
	if p.EUid != 0 {
		return errno.New("", errno.EPERM)
	}
	inode, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.GET)
	if err != nil {
		return err
	}
	volume := k.VFS.Volumes[inode.FilesystemId]
	if volume.Root() != inode {
		return errno.New(c.Path, errno.EINVAL)
	}
	k.VFS.Unmount(volume)
	return nil
}

// execve resolves path to a registered program and hands back a fresh
// instance for the calling task goroutine to run in place: it must never
// start a second goroutine for pid, or the process ends up served by two
// goroutines at once. The returned value satisfies task.Runnable; the
// caller (task.Handle.Execve) runs its Main itself and never returns to
// its old code, matching "execve only returns on failure."
func (k *Kernel) execve(pid proc.PID, c sysreq.ExecveCall) (program.Program, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return nil, err
	}
	inode, err := k.VFS.Traverse(k.pathContext(p), c.Path, vfs.GET)
	if err != nil {
		return nil, err
	}
	if err := perm.Access(p.Principal(), inode.Owner, inode.Group, inode.Permissions, perm.EXEC); err != nil {
		return nil, err
	}
	bin, ok := inode.Data.(*vfs.BinaryData)
	if !ok {
		return nil, errno.New(c.Path, errno.ENOEXEC)
	}

	prog, err := k.Programs.New(bin.Program)
	if err != nil {
		return nil, errno.New(c.Path, errno.ENOEXEC)
	}
	logger.Infof("execve: pid=%d path=%q program=%q", pid, c.Path, bin.Program)
	return prog, nil
}

func (k *Kernel) waitpid(pid proc.PID, reply chan sysreq.Reply, c sysreq.WaitpidCall) (any, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return nil, err
	}
	child, err := k.Processes.Get(c.Child)
	if err != nil {
		return nil, errno.New("", errno.ECHILD)
	}
	if child.Ppid != pid {
		return nil, errno.New("", errno.ECHILD)
	}

	if child.Status == proc.ZOMBIE {
		k.Processes.Remove(c.Child)
		delete(p.Children, c.Child)
		return task.WaitResult{Pid: c.Child, ExitCode: child.ExitCode}, nil
	}

	p.Status = proc.WAITING
	k.pendingWaits[pid] = reply
	return nil, errWaitBlocked
}

func (k *Kernel) exit(pid proc.PID, c sysreq.ExitCall) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return
	}
	if p.Status == proc.ZOMBIE {
		return
	}
	p.Status = proc.ZOMBIE
	p.ExitCode = c.Code

	for _, pfd := range p.FdTable {
		k.Files.Release(pfd.OpenFd)
	}
	p.FdTable = nil

	logger.Infof("exit: pid=%d code=%d", pid, c.Code)

	if p.Pid == k.swapperPid {
		return
	}
	parent, err := k.Processes.Get(p.Ppid)
	if err != nil {
		return
	}
	if parent.Status == proc.WAITING {
		parent.Status = proc.RUNNING
		replyChan, ok := k.pendingWaits[p.Ppid]
		if ok {
			delete(k.pendingWaits, p.Ppid)
			k.Processes.Remove(pid)
			delete(parent.Children, pid)
			replyChan <- sysreq.Reply{Value: task.WaitResult{Pid: pid, ExitCode: c.Code}}
		}
	}
}

func (k *Kernel) getuid(pid proc.PID) (perm.UID, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}
	return p.RealUid, nil
}

func (k *Kernel) geteuid(pid proc.PID) (perm.UID, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}
	return p.EUid, nil
}

func (k *Kernel) setuid(pid proc.PID, c sysreq.SetuidCall) error {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return err
	}
	if c.Uid == p.EUid || c.Uid == p.RealUid || p.EUid == 0 {
		p.EUid = c.Uid
		p.RealUid = c.Uid
		return nil
	}
	return errno.New("", errno.EPERM)
}

func (k *Kernel) getgid(pid proc.PID) (perm.GID, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}
	return p.RealGid, nil
}

func (k *Kernel) getegid(pid proc.PID) (perm.GID, error) {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return 0, err
	}
	return p.EGid, nil
}

func (k *Kernel) setgid(pid proc.PID, c sysreq.SetgidCall) error {
	p, err := k.Processes.Get(pid)
	if err != nil {
		return err
	}
	if c.Gid == p.EGid || c.Gid == p.RealGid || p.EUid == 0 {
		p.EGid = c.Gid
		p.RealGid = c.Gid
		return nil
	}
	return errno.New("", errno.EPERM)
}
