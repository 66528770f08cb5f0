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

// Package vfs implements the in-memory inode model: the polymorphic
// INodeData payload, the per-volume inode table, the mount table, and the
// path resolver that crosses mount points in both directions.
package vfs

import (
	"time"

	"github.com/google/uuid"

	"github.com/Iluvatar/unix74/internal/perm"
)

// INumber identifies an inode within a single volume. It is never
// meaningful without the volume's FilesystemId alongside it.
type INumber uint64

// FileType is the closed set of inode kinds.
type FileType int

const (
	NONE FileType = iota
	REGULAR
	DIRECTORY
	CHARACTER
	LINK
	PIPE
)

func (t FileType) String() string {
	switch t {
	case REGULAR:
		return "REGULAR"
	case DIRECTORY:
		return "DIRECTORY"
	case CHARACTER:
		return "CHARACTER"
	case LINK:
		return "LINK"
	case PIPE:
		return "PIPE"
	default:
		return "NONE"
	}
}

// INode is the metadata record for a single file within one volume,
// identified by (FilesystemId, INumber).
type INode struct {
	INumber      INumber
	Permissions  perm.FilePermissions
	FileType     FileType
	Owner        perm.UID
	Group        perm.GID
	TimeCreated  time.Time
	TimeModified time.Time
	Data         INodeData
	FilesystemId uuid.UUID

	// IsMount is true iff this inode is currently covered by a mounted
	// volume; path resolution crossing this inode forwards to that
	// volume's root instead of descending into Data.
	IsMount bool

	// DeviceNumber is -1 unless FileType == CHARACTER.
	DeviceNumber int

	// References is the hard-link count. Directories start at 2 ("."
	// plus the parent's entry for it); it reaches zero when the last
	// directory entry naming this inode is removed, at which point the
	// inode is eligible for removal from its volume.
	References int
}

// INodeData is the polymorphic payload every inode carries. Regular,
// Directory, Binary, and Device (character-special) are the four
// concrete variants; see regular.go, directory.go, binary.go, and the
// device package for Device's implementation.
type INodeData interface {
	Read(size int, offset int64) ([]byte, error)
	Write(data []byte, offset int64) (int, error)
	Append(data []byte) (int, error)
	Trunc() error
	Size() int64
}
