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

// Package proc holds the process table, the open-file table, and the
// per-process file-descriptor table: the kernel state that sits above the
// vfs package but below the dispatcher.
package proc

import (
	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// PID, FD, and OFD are kept distinct from each other and from perm.UID/GID
// so a caller can never accidentally pass one where another belongs.
type PID int
type FD int
type OFD int

// Status is a process's position in the fork/wait/exit state machine.
type Status int

const (
	RUNNING Status = iota
	WAITING
	ZOMBIE
)

func (s Status) String() string {
	switch s {
	case RUNNING:
		return "RUNNING"
	case WAITING:
		return "WAITING"
	case ZOMBIE:
		return "ZOMBIE"
	default:
		return "UNKNOWN"
	}
}

// OpenFlags mirrors the original's OpenFlags bitset.
type OpenFlags int

const (
	READ       OpenFlags = 1
	WRITE      OpenFlags = 2
	READ_WRITE           = READ | WRITE
	APPEND     OpenFlags = 4
	CREATE     OpenFlags = 8
	TRUNCATE   OpenFlags = 16
)

func (f OpenFlags) Has(bit OpenFlags) bool { return f&bit != 0 }

// SeekFrom is lseek's whence argument.
type SeekFrom int

const (
	SeekSet SeekFrom = iota
	SeekCurrent
	SeekEnd
)

// OpenFileDescription is the kernel-global record behind one or more FDs;
// its offset and refcount are shared by every FD pointing at it, the
// mechanism that makes post-fork/dup2 sharing work.
type OpenFileDescription struct {
	ID       OFD
	Mode     OpenFlags
	Inode    *vfs.INode
	RefCount int
	Offset   int64
}

// ProcessFileDescriptor is one per-process fd slot, naming an OFD.
type ProcessFileDescriptor struct {
	ID     FD
	OpenFd *OpenFileDescription
}

// Process is one entry in the process table.
type Process struct {
	Pid     PID
	Ppid    PID
	Command string

	RealUid perm.UID
	RealGid perm.GID
	EUid    perm.UID
	EGid    perm.GID

	CurrentDir *vfs.INode
	Env        map[string]string

	Status   Status
	ExitCode int

	FdTable  map[FD]*ProcessFileDescriptor
	Children map[PID]struct{}

	TTY int
}

// ClaimNextFd returns the lowest-numbered FD not already in use by p.
func (p *Process) ClaimNextFd() FD {
	var i FD
	for {
		if _, used := p.FdTable[i]; !used {
			return i
		}
		i++
	}
}

// Principal extracts the effective identity perm.Access checks against.
func (p *Process) Principal() perm.Principal {
	return perm.Principal{EUID: p.EUid, EGID: p.EGid}
}
