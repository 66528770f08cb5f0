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

// Package task is the user-task side of the syscall boundary: the Go
// analogue of the original's SystemHandle/Libc pair. A Handle is the only
// thing a running program holds; it never touches kernel state directly,
// only round-trips sysreq.Request/Reply over the shared channel.
package task

import (
	"context"
	"runtime"

	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/sysreq"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// Handle is one running process's window onto the kernel.
type Handle struct {
	Pid      proc.PID
	Env      map[string]string
	toKernel chan<- *sysreq.Request
}

// Runnable is the Main signature a program must have for Execve to run it
// in place. Declared here, rather than importing the program package's
// Program interface directly, because program imports task for *Handle —
// importing it back would cycle. Any program.Program value already
// satisfies this structurally, since its Main method has this exact
// signature.
type Runnable interface {
	Main(ctx context.Context, h *Handle, argv []string) int
}

func NewHandle(pid proc.PID, env map[string]string, toKernel chan<- *sysreq.Request) *Handle {
	return &Handle{Pid: pid, Env: env, toKernel: toKernel}
}

// call sends req and blocks for its reply. Every syscall wrapper below
// funnels through it except Exit, which sends on the shared channel
// directly and waits for no reply.
func (h *Handle) call(c sysreq.Call) (any, error) {
	reply := make(chan sysreq.Reply, 1)
	h.toKernel <- &sysreq.Request{Pid: h.Pid, Call: c, Reply: reply}
	r := <-reply
	return r.Value, r.Err
}

func (h *Handle) Fork(program, command string, argv []string, env map[string]string) (proc.PID, error) {
	v, err := h.call(sysreq.ForkCall{Program: program, Command: command, Argv: argv, Env: env})
	if err != nil {
		return 0, err
	}
	return v.(proc.PID), nil
}

func (h *Handle) Open(path string, flags proc.OpenFlags) (proc.FD, error) {
	v, err := h.call(sysreq.OpenCall{Path: path, Flags: flags})
	if err != nil {
		return 0, err
	}
	return v.(proc.FD), nil
}

func (h *Handle) Creat(path string, permissions perm.FilePermissions) (proc.FD, error) {
	v, err := h.call(sysreq.CreatCall{Path: path, Permissions: permissions})
	if err != nil {
		return 0, err
	}
	return v.(proc.FD), nil
}

func (h *Handle) Lseek(fd proc.FD, offset int64, whence proc.SeekFrom) (int64, error) {
	v, err := h.call(sysreq.LseekCall{Fd: fd, Offset: offset, Whence: whence})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (h *Handle) Read(fd proc.FD, size int) ([]byte, error) {
	v, err := h.call(sysreq.ReadCall{Fd: fd, Size: size})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (h *Handle) Write(fd proc.FD, data []byte) (int, error) {
	v, err := h.call(sysreq.WriteCall{Fd: fd, Data: data})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (h *Handle) Close(fd proc.FD) error {
	_, err := h.call(sysreq.CloseCall{Fd: fd})
	return err
}

func (h *Handle) Link(target, alias string) error {
	_, err := h.call(sysreq.LinkCall{Target: target, Alias: alias})
	return err
}

func (h *Handle) Unlink(path string) error {
	_, err := h.call(sysreq.UnlinkCall{Path: path})
	return err
}

func (h *Handle) Getdents(fd proc.FD) ([]vfs.DirEntry, error) {
	v, err := h.call(sysreq.GetdentsCall{Fd: fd})
	if err != nil {
		return nil, err
	}
	return v.([]vfs.DirEntry), nil
}

func (h *Handle) Chdir(path string) error {
	_, err := h.call(sysreq.ChdirCall{Path: path})
	return err
}

// Stat is the metadata snapshot returned to user space.
type Stat struct {
	INumber      vfs.INumber
	Permissions  perm.FilePermissions
	FileType     vfs.FileType
	Owner        perm.UID
	Group        perm.GID
	Size         int64
	FilesystemId string
	DeviceNumber int
	References   int
}

func (h *Handle) Stat(path string) (Stat, error) {
	v, err := h.call(sysreq.StatCall{Path: path})
	if err != nil {
		return Stat{}, err
	}
	return v.(Stat), nil
}

func (h *Handle) Mount(path string, volume *vfs.Volume) error {
	_, err := h.call(sysreq.MountCall{Path: path, Volume: volume})
	return err
}

func (h *Handle) Umount(path string) error {
	_, err := h.call(sysreq.UmountCall{Path: path})
	return err
}

// Execve replaces the calling process's program image in place: on
// success it never returns to the caller, matching the real syscall's
// "only returns on failure" contract. The kernel hands back a fresh
// Runnable for path rather than starting a second goroutine for this
// pid, so Execve runs its Main itself, in the same goroutine the caller
// is already running in, reports its exit code via Exit, and halts this
// goroutine with runtime.Goexit so the caller's old code never resumes.
func (h *Handle) Execve(ctx context.Context, path string, argv []string) error {
	v, err := h.call(sysreq.ExecveCall{Path: path, Argv: argv})
	if err != nil {
		return err
	}

	runnable := v.(Runnable)
	code := runnable.Main(ctx, h, argv)
	h.Exit(code)
	runtime.Goexit()
	return nil
}

// WaitResult is the (pid, exit code) pair waitpid hands back to the caller.
type WaitResult struct {
	Pid      proc.PID
	ExitCode int
}

func (h *Handle) Waitpid(child proc.PID) (WaitResult, error) {
	v, err := h.call(sysreq.WaitpidCall{Child: child})
	if err != nil {
		return WaitResult{}, err
	}
	return v.(WaitResult), nil
}

// Exit never returns a reply: the kernel's dispatch loop does not reply to
// an ExitCall, matching spec.md's "no reply" contract, and the task
// goroutine is expected to stop running immediately after calling it.
func (h *Handle) Exit(code int) {
	reply := make(chan sysreq.Reply, 1)
	h.toKernel <- &sysreq.Request{Pid: h.Pid, Call: sysreq.ExitCall{Code: code}, Reply: reply}
}

func (h *Handle) Getuid() (perm.UID, error) {
	v, err := h.call(sysreq.GetuidCall{})
	if err != nil {
		return 0, err
	}
	return v.(perm.UID), nil
}

func (h *Handle) Geteuid() (perm.UID, error) {
	v, err := h.call(sysreq.GeteuidCall{})
	if err != nil {
		return 0, err
	}
	return v.(perm.UID), nil
}

func (h *Handle) Setuid(uid perm.UID) error {
	_, err := h.call(sysreq.SetuidCall{Uid: uid})
	return err
}

func (h *Handle) Getgid() (perm.GID, error) {
	v, err := h.call(sysreq.GetgidCall{})
	if err != nil {
		return 0, err
	}
	return v.(perm.GID), nil
}

func (h *Handle) Getegid() (perm.GID, error) {
	v, err := h.call(sysreq.GetegidCall{})
	if err != nil {
		return 0, err
	}
	return v.(perm.GID), nil
}

func (h *Handle) Setgid(gid perm.GID) error {
	_, err := h.call(sysreq.SetgidCall{Gid: gid})
	return err
}

func (h *Handle) Getpid() (proc.PID, error) {
	v, err := h.call(sysreq.GetpidCall{})
	if err != nil {
		return 0, err
	}
	return v.(proc.PID), nil
}
