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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/proc"
	"github.com/Iluvatar/unix74/internal/program"
)

// bindFd opens path (creating it with mode if it doesn't exist) and wires
// it directly into the test process's fd table under fdNum, bypassing
// ClaimNextFd so stdin/stdout/stderr can be pinned to 0/1/2 the way a real
// shell's fork would inherit them.
func (t *KernelTest) bindFd(fdNum proc.FD, path string, flags proc.OpenFlags, mode perm.FilePermissions) {
	var fd proc.FD
	var err error
	if flags.Has(proc.CREATE) {
		fd, err = t.h.Creat(path, mode)
	} else {
		fd, err = t.h.Open(path, flags)
	}
	require.NoError(t.T(), err)

	p, err := t.k.Processes.Get(t.pid)
	require.NoError(t.T(), err)
	pfd := p.FdTable[fd]
	delete(p.FdTable, fd)
	pfd.ID = fdNum
	p.FdTable[fdNum] = pfd
}

func (t *KernelTest) TestCat_StreamsNamedFileToStdout() {
	fd, err := t.h.Creat("/greeting.txt", perm.Parse(0644))
	require.NoError(t.T(), err)
	_, err = t.h.Write(fd, []byte("hello, world"))
	require.NoError(t.T(), err)
	require.NoError(t.T(), t.h.Close(fd))

	t.bindFd(1, "/stdout.txt", proc.CREATE, perm.Parse(0644))

	cat := &program.Cat{}
	code := cat.Main(context.Background(), t.h, []string{"/greeting.txt"})
	assert.Equal(t.T(), 0, code)

	out, err := t.h.Stat("/stdout.txt")
	require.NoError(t.T(), err)
	assert.EqualValues(t.T(), len("hello, world"), out.Size)
}

func (t *KernelTest) TestCat_MissingFileReportsErrorAndNonzeroStatus() {
	t.bindFd(2, "/stderr.txt", proc.CREATE, perm.Parse(0644))

	cat := &program.Cat{}
	code := cat.Main(context.Background(), t.h, []string{"/nope.txt"})
	assert.Equal(t.T(), 1, code)

	st, err := t.h.Stat("/stderr.txt")
	require.NoError(t.T(), err)
	assert.Greater(t.T(), st.Size, int64(0))
}

func (t *KernelTest) TestLs_ListsDirectoryEntriesSorted() {
	_, err := t.h.Creat("/zeta.txt", perm.Parse(0644))
	require.NoError(t.T(), err)
	_, err = t.h.Creat("/alpha.txt", perm.Parse(0644))
	require.NoError(t.T(), err)

	t.bindFd(1, "/ls-out.txt", proc.CREATE, perm.Parse(0644))

	ls := &program.Ls{}
	code := ls.Main(context.Background(), t.h, []string{"/"})
	assert.Equal(t.T(), 0, code)

	fd, err := t.h.Open("/ls-out.txt", proc.READ)
	require.NoError(t.T(), err)
	data, err := t.h.Read(fd, 4096)
	require.NoError(t.T(), err)
	require.NoError(t.T(), t.h.Close(fd))

	out := string(data)
	assert.Less(t.T(), indexOf(out, "alpha.txt"), indexOf(out, "zeta.txt"))
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func (t *KernelTest) TestSh_RunsOneCommandThenExitsOnEOF() {
	writeFd, err := t.h.Creat("/sh-in.txt", perm.Parse(0644))
	require.NoError(t.T(), err)
	_, err = t.h.Write(writeFd, []byte("true\n"))
	require.NoError(t.T(), err)
	require.NoError(t.T(), t.h.Close(writeFd))

	t.bindFd(0, "/sh-in.txt", proc.READ, perm.FilePermissions{})
	t.bindFd(1, "/sh-out.txt", proc.CREATE, perm.Parse(0644))

	sh := &program.Sh{}
	code := sh.Main(context.Background(), t.h, nil)
	assert.Equal(t.T(), 0, code)
}

func (t *KernelTest) TestInit_RespawnsShellOnExit() {
	// Init forks "sh" and waits for it; the forked sh has no fd 1 wired up
	// here, so its first Write fails and it exits 1 immediately, and init
	// loops straight back into another fork. Canceling ctx right after
	// launch stops that loop at the top of its next iteration.
	ctx, cancel := context.WithCancel(context.Background())

	init := &program.Init{}
	done := make(chan int, 1)
	go func() { done <- init.Main(ctx, t.h, nil) }()

	cancel()
	code := <-done
	assert.Equal(t.T(), 0, code)
}

func (t *KernelTest) TestTrueFalse_FixedExitCodes() {
	assert.Equal(t.T(), 0, (&program.True{}).Main(context.Background(), t.h, nil))
	assert.Equal(t.T(), 1, (&program.False{}).Main(context.Background(), t.h, nil))
}
