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

// Package kernel is the single-threaded dispatch loop and all syscall
// handlers: the top-level aggregator sitting above vfs, proc, device, and
// program. It owns every piece of mutable kernel state; nothing else does.
package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"

	"github.com/Iluvatar/unix74/internal/kmetrics"
	"github.com/Iluvatar/unix74/internal/logger"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/program"
	"github.com/Iluvatar/unix74/internal/sysreq"
	"github.com/Iluvatar/unix74/internal/task"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// Kernel is the single owning object for every piece of mutable state: the
// VFS, the process table, the open-file table, and the program registry.
// It is passed explicitly to every handler method; there are no
// package-level singletons.
type Kernel struct {
	// mu guards nothing concurrently in practice (the dispatch loop is
	// the only writer), but wraps every handler invocation so
	// checkInvariants runs after each one, per the teacher's
	// "describe the invariant, panic if violated" idiom.
	mu syncutil.InvariantMutex

	VFS       *vfs.VFS
	Processes *proc.Table
	Files     *proc.OpenFileTable
	Programs  *program.Registry
	Clock     timeutil.Clock

	requests chan *sysreq.Request

	// pendingWaits holds the reply channel of a process blocked in
	// waitpid, keyed by the waiting parent's pid, until the awaited
	// child's exit handler fires the reply.
	pendingWaits map[proc.PID]chan sysreq.Reply

	swapperPid proc.PID

	// runCtx is the context passed to Run, reused by fork to start each
	// child task goroutine so a kernel-wide cancellation reaches every
	// running process.
	runCtx context.Context
}

// New builds an empty kernel: no volumes mounted, no processes, an empty
// open-file table. Call Boot (in the boot package) to populate it.
func New(programs *program.Registry, clock timeutil.Clock) *Kernel {
	k := &Kernel{
		VFS:          vfs.New(func() time.Time { return clock.Now() }),
		Processes:    proc.NewTable(),
		Files:        proc.NewOpenFileTable(),
		Programs:     programs,
		Clock:        clock,
		requests:     make(chan *sysreq.Request, 64),
		pendingWaits: make(map[proc.PID]chan sysreq.Reply),
	}
	k.mu = syncutil.NewInvariantMutex(k.checkInvariants)
	return k
}

// Requests returns the channel every task goroutine sends syscall requests
// on.
func (k *Kernel) Requests() chan<- *sysreq.Request {
	return k.requests
}

// checkInvariants validates that every inode is stored under its own
// inumber on the volume whose UUID it carries, that every live process
// other than the swapper has a parent in the table, and that every open
// fd's OFD has a reference count of at least 1. Inode link counts and
// dot-dot entries are not checked. A violation panics.
func (k *Kernel) checkInvariants() {
	for _, volume := range k.VFS.Volumes {
		for inum, in := range volume.Inodes {
			if in.INumber != inum {
				panic(fmt.Sprintf("inode key mismatch: stored under %d, has INumber %d", inum, in.INumber))
			}
			if in.FilesystemId != volume.UUID {
				panic(fmt.Sprintf("inode %d/%d has mismatched filesystem id", volume.UUID, inum))
			}
		}
	}

	for _, p := range k.Processes.All() {
		if p.Status == proc.ZOMBIE {
			continue
		}
		if p.Pid == k.swapperPid {
			continue
		}
		if _, err := k.Processes.Get(p.Ppid); err != nil {
			panic(fmt.Sprintf("process %d has missing parent %d", p.Pid, p.Ppid))
		}
		for _, pfd := range p.FdTable {
			if pfd.OpenFd.RefCount < 1 {
				panic(fmt.Sprintf("ofd %d has non-positive refcount %d", pfd.OpenFd.ID, pfd.OpenFd.RefCount))
			}
		}
	}
}

// Run is the dispatch loop: reads one request at a time from the shared
// channel, looks up the handler by concrete Call type, and replies (except
// for blocking waitpid and no-reply exit). It returns when ctx is
// cancelled.
func (k *Kernel) Run(ctx context.Context) error {
	k.runCtx = ctx
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			k.mu.Lock()
			k.mu.Unlock()
		case req := <-k.requests:
			k.serve(req)
		}
	}
}

func (k *Kernel) serve(req *sysreq.Request) {
	// The invariant check fires on mu.Unlock, after dispatch's own recover
	// has already returned — so it needs its own recover here to turn a
	// violated invariant into errno.PANIC instead of crashing the dispatch
	// goroutine outright.
	var value any
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("panic checking invariants after pid=%d call=%T: %v", req.Pid, req.Call, r)
				value, err = nil, panicErr(r)
			}
		}()
		k.mu.Lock()
		defer k.mu.Unlock()
		value, err = k.dispatch(req)
	}()
	logger.Tracef("pid=%d call=%T err=%v", req.Pid, req.Call, err)
	kmetrics.SyscallsTotal.WithLabelValues(fmt.Sprintf("%T", req.Call), errnoLabel(err)).Inc()
	kmetrics.ProcessesLive.Set(float64(k.Processes.Len()))
	kmetrics.OpenFilesLive.Set(float64(k.Files.Count()))

	if _, ok := req.Call.(sysreq.ExitCall); ok {
		return
	}
	if err == errWaitBlocked {
		return
	}
	req.Reply <- sysreq.Reply{Value: value, Err: err}
}

// errWaitBlocked is a sentinel dispatch returns from waitpid to tell serve
// not to reply yet; the real reply is delivered later from exit.
var errWaitBlocked = fmt.Errorf("waitpid: blocked")

func (k *Kernel) dispatch(req *sysreq.Request) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic serving pid=%d call=%T: %v", req.Pid, req.Call, r)
			err = panicErr(r)
			value = nil
		}
	}()

	value, err = k.route(req)
	if err != nil && err != errWaitBlocked {
		err = asKernelError(err)
	}
	return value, err
}

func (k *Kernel) route(req *sysreq.Request) (any, error) {
	switch c := req.Call.(type) {
	case sysreq.ForkCall:
		return k.fork(req.Pid, c)
	case sysreq.OpenCall:
		return k.open(req.Pid, c)
	case sysreq.CreatCall:
		return k.creat(req.Pid, c)
	case sysreq.LseekCall:
		return k.lseek(req.Pid, c)
	case sysreq.ReadCall:
		return k.read(req.Pid, c)
	case sysreq.WriteCall:
		return k.write(req.Pid, c)
	case sysreq.CloseCall:
		return nil, k.close(req.Pid, c)
	case sysreq.LinkCall:
		return nil, k.link(req.Pid, c)
	case sysreq.UnlinkCall:
		return nil, k.unlink(req.Pid, c)
	case sysreq.GetdentsCall:
		return k.getdents(req.Pid, c)
	case sysreq.ChdirCall:
		return nil, k.chdir(req.Pid, c)
	case sysreq.StatCall:
		return k.stat(req.Pid, c)
	case sysreq.MountCall:
		return nil, k.mount(req.Pid, c)
	case sysreq.UmountCall:
		return nil, k.umount(req.Pid, c)
	case sysreq.ExecveCall:
		return k.execve(req.Pid, c)
	case sysreq.WaitpidCall:
		return k.waitpid(req.Pid, req.Reply, c)
	case sysreq.ExitCall:
		k.exit(req.Pid, c)
		return nil, nil
	case sysreq.GetuidCall:
		return k.getuid(req.Pid)
	case sysreq.GeteuidCall:
		return k.geteuid(req.Pid)
	case sysreq.SetuidCall:
		return nil, k.setuid(req.Pid, c)
	case sysreq.GetgidCall:
		return k.getgid(req.Pid)
	case sysreq.GetegidCall:
		return k.getegid(req.Pid)
	case sysreq.SetgidCall:
		return nil, k.setgid(req.Pid, c)
	case sysreq.GetpidCall:
		return req.Pid, nil
	default:
		return nil, fmt.Errorf("kernel: unrecognized call %T", c)
	}
}

// StartTask launches program identifier as a new goroutine communicating
// through h, calling its Main and routing its exit code to the exit
// syscall when Main returns (so a program that forgets to call h.Exit
// still terminates cleanly).
func (k *Kernel) StartTask(ctx context.Context, identifier string, h *task.Handle, argv []string) error {
	p, err := k.Programs.New(identifier)
	if err != nil {
		return err
	}
	go func() {
		code := p.Main(ctx, h, argv)
		h.Exit(code)
	}()
	return nil
}
