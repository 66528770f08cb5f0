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
	"testing"
	"time"

	"github.com/jacobsa/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Iluvatar/unix74/internal/errno"
	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/program"
	"github.com/Iluvatar/unix74/internal/task"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// newTestRootVolume builds a single-directory volume owned by root, mode
// 0755, used as every integration test's starting filesystem.
func newTestRootVolume() *vfs.Volume {
	v := vfs.NewVolume()
	dirData := vfs.NewDirectoryData()
	root := &vfs.INode{
		Permissions:  perm.Parse(0755),
		FileType:     vfs.DIRECTORY,
		Owner:        0,
		Group:        0,
		Data:         dirData,
		FilesystemId: v.UUID,
		DeviceNumber: -1,
		References:   2,
	}
	root.INumber = v.ClaimNextINumber()
	v.Add(root)
	dirData.AddChild(".", root.INumber)
	dirData.AddChild("..", root.INumber)
	return v
}

type KernelTest struct {
	suite.Suite
	k      *Kernel
	vol    *vfs.Volume
	cancel context.CancelFunc
	h      *task.Handle
	pid    proc.PID
}

func TestKernelSuite(t *testing.T) {
	suite.Run(t, new(KernelTest))
}

func (t *KernelTest) SetupTest() {
	t.k = New(program.Standard(), timeutil.RealClock())
	t.k.swapperPid = -1 // this suite's root process is never the swapper.
	t.vol = newTestRootVolume()
	t.k.VFS.SetRoot(t.vol)

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	go t.k.Run(ctx)

	t.pid = t.k.Processes.ClaimNextPid()
	p := &proc.Process{
		Pid:        t.pid,
		Ppid:       t.pid,
		Command:    "root-shell",
		RealUid:    0,
		RealGid:    0,
		EUid:       0,
		EGid:       0,
		CurrentDir: t.vol.Root(),
		Env:        map[string]string{},
		Status:     proc.RUNNING,
		FdTable:    make(map[proc.FD]*proc.ProcessFileDescriptor),
		Children:   make(map[proc.PID]struct{}),
		TTY:        -1,
	}
	t.k.Processes.Add(p)
	t.h = task.NewHandle(t.pid, p.Env, t.k.Requests())
}

func (t *KernelTest) TearDownTest() {
	t.cancel()
}

func (t *KernelTest) TestCreatWriteReadClose() {
	fd, err := t.h.Creat("/hello.txt", perm.Parse(0644))
	require.NoError(t.T(), err)

	n, err := t.h.Write(fd, []byte("hello"))
	require.NoError(t.T(), err)
	assert.Equal(t.T(), 5, n)
	require.NoError(t.T(), t.h.Close(fd))

	fd2, err := t.h.Open("/hello.txt", proc.READ)
	require.NoError(t.T(), err)
	data, err := t.h.Read(fd2, 100)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), "hello", string(data))
	require.NoError(t.T(), t.h.Close(fd2))
}

func (t *KernelTest) TestLseek_SetCurrentEnd() {
	fd, err := t.h.Creat("/seek.txt", perm.Parse(0644))
	require.NoError(t.T(), err)
	_, err = t.h.Write(fd, []byte("0123456789"))
	require.NoError(t.T(), err)

	off, err := t.h.Lseek(fd, 2, proc.SeekSet)
	require.NoError(t.T(), err)
	assert.EqualValues(t.T(), 2, off)

	off, err = t.h.Lseek(fd, 3, proc.SeekCurrent)
	require.NoError(t.T(), err)
	assert.EqualValues(t.T(), 5, off)

	off, err = t.h.Lseek(fd, 0, proc.SeekEnd)
	require.NoError(t.T(), err)
	assert.EqualValues(t.T(), 10, off)

	_, err = t.h.Lseek(fd, -100, proc.SeekSet)
	assert.Equal(t.T(), errno.EINVAL, errno.As(err))
}

func (t *KernelTest) TestOpen_MissingFileIsENOENT() {
	_, err := t.h.Open("/nope.txt", proc.READ)
	assert.Equal(t.T(), errno.ENOENT, errno.As(err))
}

func (t *KernelTest) TestOpen_DirectoryForWriteIsEISDIR() {
	_, err := t.h.Open("/", proc.WRITE)
	assert.Equal(t.T(), errno.EISDIR, errno.As(err))
}

func (t *KernelTest) TestCloseUnknownFdIsEBADF() {
	err := t.h.Close(99)
	assert.Equal(t.T(), errno.EBADF, errno.As(err))
}

func (t *KernelTest) TestLinkAndUnlink() {
	_, err := t.h.Creat("/orig.txt", perm.Parse(0644))
	require.NoError(t.T(), err)

	require.NoError(t.T(), t.h.Link("/orig.txt", "/alias.txt"))

	st, err := t.h.Stat("/alias.txt")
	require.NoError(t.T(), err)
	assert.Equal(t.T(), 2, st.References)

	require.NoError(t.T(), t.h.Unlink("/orig.txt"))
	st, err = t.h.Stat("/alias.txt")
	require.NoError(t.T(), err)
	assert.Equal(t.T(), 1, st.References)

	_, err = t.h.Stat("/orig.txt")
	assert.Equal(t.T(), errno.ENOENT, errno.As(err))
}

func (t *KernelTest) TestLink_DirectoryTargetIsEISDIR() {
	err := t.h.Link("/", "/rootalias")
	assert.Equal(t.T(), errno.EISDIR, errno.As(err))
}

func (t *KernelTest) TestLink_ExistingAliasIsEEXIST() {
	_, err := t.h.Creat("/a.txt", perm.Parse(0644))
	require.NoError(t.T(), err)
	_, err = t.h.Creat("/b.txt", perm.Parse(0644))
	require.NoError(t.T(), err)

	err = t.h.Link("/a.txt", "/b.txt")
	assert.Equal(t.T(), errno.EEXIST, errno.As(err))
}

func (t *KernelTest) TestUnlink_DirectoryIsEISDIR() {
	err := t.h.Unlink("/")
	assert.Equal(t.T(), errno.EISDIR, errno.As(err))
}

func (t *KernelTest) TestGetdents() {
	_, err := t.h.Creat("/a.txt", perm.Parse(0644))
	require.NoError(t.T(), err)

	fd, err := t.h.Open("/", proc.READ)
	require.NoError(t.T(), err)
	entries, err := t.h.Getdents(fd)
	require.NoError(t.T(), err)

	names := make(map[string]bool)
	for _, e := range entries {
		names[e.Name] = true
		assert.Equal(t.T(), t.vol.UUID.String(), e.FilesystemId)
	}
	assert.True(t.T(), names["."])
	assert.True(t.T(), names[".."])
	assert.True(t.T(), names["a.txt"])
}

func (t *KernelTest) TestChdir() {
	err := t.h.Chdir("/")
	require.NoError(t.T(), err)

	err = t.h.Chdir("/nonexistent")
	assert.Equal(t.T(), errno.ENOENT, errno.As(err))
}

func (t *KernelTest) TestStat_UnknownPathIsENOENT() {
	_, err := t.h.Stat("/ghost.txt")
	assert.Equal(t.T(), errno.ENOENT, errno.As(err))
}

func (t *KernelTest) TestForkWaitExit_TrueAndFalse() {
	childPid, err := t.h.Fork("true", "true", nil, map[string]string{})
	require.NoError(t.T(), err)

	result, err := t.h.Waitpid(childPid)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), childPid, result.Pid)
	assert.Equal(t.T(), 0, result.ExitCode)

	childPid2, err := t.h.Fork("false", "false", nil, map[string]string{})
	require.NoError(t.T(), err)

	result2, err := t.h.Waitpid(childPid2)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), 1, result2.ExitCode)
}

func (t *KernelTest) TestWaitpid_NotAChildIsECHILD() {
	_, err := t.h.Waitpid(proc.PID(999))
	assert.Equal(t.T(), errno.ECHILD, errno.As(err))
}

func (t *KernelTest) TestMountAndUnmount() {
	other := newTestRootVolume()
	require.NoError(t.T(), t.h.Mount("/", other))

	st, err := t.h.Stat("/")
	require.NoError(t.T(), err)
	assert.Equal(t.T(), other.UUID.String(), st.FilesystemId)

	require.NoError(t.T(), t.h.Umount("/"))
	st, err = t.h.Stat("/")
	require.NoError(t.T(), err)
	assert.Equal(t.T(), t.vol.UUID.String(), st.FilesystemId)
}

func (t *KernelTest) TestMount_RequiresSuperuser() {
	require.NoError(t.T(), t.h.Setuid(500))

	other := newTestRootVolume()
	err := t.h.Mount("/", other)
	assert.Equal(t.T(), errno.EPERM, errno.As(err))
}

func (t *KernelTest) TestGetuidSetuid() {
	uid, err := t.h.Getuid()
	require.NoError(t.T(), err)
	assert.EqualValues(t.T(), 0, uid)

	require.NoError(t.T(), t.h.Setuid(500))
	uid, err = t.h.Getuid()
	require.NoError(t.T(), err)
	assert.EqualValues(t.T(), 500, uid)

	// no longer root: changing to an arbitrary uid is now EPERM.
	err = t.h.Setuid(600)
	assert.Equal(t.T(), errno.EPERM, errno.As(err))
}

func (t *KernelTest) TestGetgidSetgid() {
	require.NoError(t.T(), t.h.Setgid(77))
	gid, err := t.h.Getgid()
	require.NoError(t.T(), err)
	assert.EqualValues(t.T(), 77, gid)
}

func (t *KernelTest) TestExecve_NonBinaryIsENOEXEC() {
	_, err := t.h.Creat("/notabinary", perm.Parse(0755))
	require.NoError(t.T(), err)

	err = t.h.Execve(context.Background(), "/notabinary", nil)
	assert.Equal(t.T(), errno.ENOEXEC, errno.As(err))
}

func (t *KernelTest) TestExecve_ReplacesImageInPlace() {
	binData := vfs.NewBinaryData("true", program.Version)
	bin := &vfs.INode{
		INumber:      t.vol.ClaimNextINumber(),
		Permissions:  perm.Parse(0555),
		FileType:     vfs.REGULAR,
		Owner:        0,
		Group:        0,
		Data:         binData,
		FilesystemId: t.vol.UUID,
		DeviceNumber: -1,
		References:   1,
	}
	t.vol.Add(bin)
	rootDir := t.vol.Root().Data.(*vfs.DirectoryData)
	require.NoError(t.T(), rootDir.AddChild("true-bin", bin.INumber))

	childPid := t.k.Processes.ClaimNextPid()
	child := &proc.Process{
		Pid:        childPid,
		Ppid:       t.pid,
		Command:    "exec-test",
		CurrentDir: t.vol.Root(),
		Env:        map[string]string{},
		Status:     proc.RUNNING,
		FdTable:    make(map[proc.FD]*proc.ProcessFileDescriptor),
		Children:   make(map[proc.PID]struct{}),
		TTY:        -1,
	}
	t.k.Processes.Add(child)
	parent, err := t.k.Processes.Get(t.pid)
	require.NoError(t.T(), err)
	parent.Children[childPid] = struct{}{}

	h2 := task.NewHandle(childPid, child.Env, t.k.Requests())
	execErr := make(chan error, 1)
	go func() { execErr <- h2.Execve(context.Background(), "/true-bin", nil) }()

	result, err := t.h.Waitpid(childPid)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), childPid, result.Pid)
	assert.Equal(t.T(), 0, result.ExitCode)

	// Execve only returns to its caller on failure; since this exec
	// succeeded, h2.Execve must never have sent anything on execErr — its
	// goroutine halted via runtime.Goexit after calling Exit.
	select {
	case err := <-execErr:
		t.T().Fatalf("Execve unexpectedly returned %v after a successful exec", err)
	default:
	}
}

func (t *KernelTest) TestInvariantPanic_BecomesPanicErrno() {
	// Directly corrupt a live process's fd table to trigger
	// checkInvariants' non-positive-refcount panic on the next request.
	p, err := t.k.Processes.Get(t.pid)
	require.NoError(t.T(), err)
	p.FdTable[999] = &proc.ProcessFileDescriptor{
		ID:     999,
		OpenFd: &proc.OpenFileDescription{RefCount: 0},
	}

	_, err = t.h.Getuid()
	assert.Equal(t.T(), errno.PANIC, errno.As(err))
}

func (t *KernelTest) TestDispatchLoop_StopsOnContextCancel() {
	t.cancel()
	// give the goroutine a moment to observe cancellation; a subsequent
	// request must simply never be answered, but we don't block on it
	// here — this just exercises that Run's select has a ctx.Done case
	// without deadlocking the test suite.
	time.Sleep(10 * time.Millisecond)
}
