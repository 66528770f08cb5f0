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

// Package sysreq defines the syscall wire encoding between a user-task
// goroutine and the kernel's dispatch loop: a closed sum of concrete call
// structs instead of the (name string, args ...any) tuple the original
// kernel used, so the dispatcher can type-switch instead of string-match.
package sysreq

import (
	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// Call is the marker interface every concrete syscall argument struct
// satisfies. Its only method is the unexported call(), so only this
// package's structs satisfy it; the dispatcher recovers the concrete
// type with a type switch over Request.Call.
type Call interface {
	call()
}

// Request is what a task goroutine sends on the kernel's shared channel.
// Reply is the task's own private channel, valid for the lifetime of this
// one request — except Waitpid, whose Reply the kernel retains in its
// pending-wait map until the awaited child exits.
type Request struct {
	Pid   proc.PID
	Call  Call
	Reply chan Reply
}

// Reply is the uniform (errno, value) envelope every handler produces.
type Reply struct {
	Err   error
	Value any
}

type ForkCall struct {
	Program string
	Command string
	Argv    []string
	Env     map[string]string
}

func (ForkCall) call() {}

type OpenCall struct {
	Path  string
	Flags proc.OpenFlags
}

func (OpenCall) call() {}

type CreatCall struct {
	Path        string
	Permissions perm.FilePermissions
}

func (CreatCall) call() {}

type LseekCall struct {
	Fd     proc.FD
	Offset int64
	Whence proc.SeekFrom
}

func (LseekCall) call() {}

type ReadCall struct {
	Fd   proc.FD
	Size int
}

func (ReadCall) call() {}

type WriteCall struct {
	Fd   proc.FD
	Data []byte
}

func (WriteCall) call() {}

type CloseCall struct {
	Fd proc.FD
}

func (CloseCall) call() {}

type LinkCall struct {
	Target string
	Alias  string
}

func (LinkCall) call() {}

type UnlinkCall struct {
	Path string
}

func (UnlinkCall) call() {}

type GetdentsCall struct {
	Fd proc.FD
}

func (GetdentsCall) call() {}

type ChdirCall struct {
	Path string
}

func (ChdirCall) call() {}

type StatCall struct {
	Path string
}

func (StatCall) call() {}

type MountCall struct {
	Path   string
	Volume *vfs.Volume
}

func (MountCall) call() {}

type UmountCall struct {
	Path string
}

func (UmountCall) call() {}

type ExecveCall struct {
	Path string
	Argv []string
}

func (ExecveCall) call() {}

type WaitpidCall struct {
	Child proc.PID
}

func (WaitpidCall) call() {}

type ExitCall struct {
	Code int
}

func (ExitCall) call() {}

type GetuidCall struct{}

func (GetuidCall) call() {}

type GeteuidCall struct{}

func (GeteuidCall) call() {}

type SetuidCall struct {
	Uid perm.UID
}

func (SetuidCall) call() {}

type GetgidCall struct{}

func (GetgidCall) call() {}

type GetegidCall struct{}

func (GetegidCall) call() {}

type SetgidCall struct {
	Gid perm.GID
}

func (SetgidCall) call() {}

type GetpidCall struct{}

func (GetpidCall) call() {}
