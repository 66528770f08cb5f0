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

package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Iluvatar/unix74/internal/errno"
)

type ProcTest struct {
	suite.Suite
}

func TestProcSuite(t *testing.T) {
	suite.Run(t, new(ProcTest))
}

func (t *ProcTest) TestClaimNextFd_LowestFree() {
	p := &Process{FdTable: map[FD]*ProcessFileDescriptor{
		0: {ID: 0},
		1: {ID: 1},
		3: {ID: 3},
	}}

	assert.Equal(t.T(), FD(2), p.ClaimNextFd())
}

func (t *ProcTest) TestClaimNextFd_EmptyTableStartsAtZero() {
	p := &Process{FdTable: map[FD]*ProcessFileDescriptor{}}
	assert.Equal(t.T(), FD(0), p.ClaimNextFd())
}

func (t *ProcTest) TestPrincipal_UsesEffectiveIds() {
	p := &Process{RealUid: 1, RealGid: 1, EUid: 2, EGid: 3}
	principal := p.Principal()
	assert.EqualValues(t.T(), 2, principal.EUID)
	assert.EqualValues(t.T(), 3, principal.EGID)
}

func (t *ProcTest) TestOpenFlagsHas() {
	f := READ_WRITE | CREATE
	assert.True(t.T(), f.Has(READ))
	assert.True(t.T(), f.Has(WRITE))
	assert.True(t.T(), f.Has(CREATE))
	assert.False(t.T(), f.Has(APPEND))
}

func (t *ProcTest) TestStatusString() {
	assert.Equal(t.T(), "RUNNING", RUNNING.String())
	assert.Equal(t.T(), "WAITING", WAITING.String())
	assert.Equal(t.T(), "ZOMBIE", ZOMBIE.String())
}

type TableTest struct {
	suite.Suite
	table *Table
}

func TestTableSuite(t *testing.T) {
	suite.Run(t, new(TableTest))
}

func (t *TableTest) SetupTest() {
	t.table = NewTable()
}

func (t *TableTest) TestClaimNextPid_StartsAtZeroAndIncrements() {
	assert.Equal(t.T(), PID(0), t.table.ClaimNextPid())
	assert.Equal(t.T(), PID(1), t.table.ClaimNextPid())
	assert.Equal(t.T(), PID(2), t.table.ClaimNextPid())
}

func (t *TableTest) TestAddGetRemove() {
	pid := t.table.ClaimNextPid()
	p := &Process{Pid: pid, Command: "init"}
	t.table.Add(p)

	got, err := t.table.Get(pid)
	require.NoError(t.T(), err)
	assert.Same(t.T(), p, got)
	assert.Equal(t.T(), 1, t.table.Len())

	t.table.Remove(pid)
	assert.Equal(t.T(), 0, t.table.Len())
	_, err = t.table.Get(pid)
	assert.Equal(t.T(), errno.ESRCH, errno.As(err))
}

func (t *TableTest) TestAll_ReturnsEveryProcess() {
	a := &Process{Pid: t.table.ClaimNextPid(), Command: "a"}
	b := &Process{Pid: t.table.ClaimNextPid(), Command: "b"}
	t.table.Add(a)
	t.table.Add(b)

	all := t.table.All()
	assert.Len(t.T(), all, 2)
}

type OpenFileTableTest struct {
	suite.Suite
	t *OpenFileTable
}

func TestOpenFileTableSuite(t *testing.T) {
	suite.Run(t, new(OpenFileTableTest))
}

func (s *OpenFileTableTest) SetupTest() {
	s.t = NewOpenFileTable()
}

func (s *OpenFileTableTest) TestOpen_AssignsIncreasingIds() {
	a := s.t.Open(nil, READ)
	b := s.t.Open(nil, READ)
	assert.NotEqual(s.T(), a.ID, b.ID)
	assert.Equal(s.T(), 1, a.RefCount)
	assert.Equal(s.T(), 2, s.t.Count())
}

func (s *OpenFileTableTest) TestRetainRelease_RemovesAtZero() {
	ofd := s.t.Open(nil, READ_WRITE)
	s.t.Retain(ofd)
	assert.Equal(s.T(), 2, ofd.RefCount)

	removed := s.t.Release(ofd)
	assert.False(s.T(), removed)
	assert.Equal(s.T(), 1, s.t.Count())

	removed = s.t.Release(ofd)
	assert.True(s.T(), removed)
	assert.Equal(s.T(), 0, s.t.Count())

	_, ok := s.t.Get(ofd.ID)
	assert.False(s.T(), ok)
}
