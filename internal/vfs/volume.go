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

package vfs

import "github.com/google/uuid"

const defaultBlockSize = 512

// Volume is a self-contained inode table under a UUID: no inode it holds
// ever references an inode of another volume directly, only by
// (FilesystemId, INumber) through the owning VFS.
type Volume struct {
	UUID        uuid.UUID
	Inodes      map[INumber]*INode
	RootINum    INumber
	nextINumber INumber
	BlockSize   int64

	// Covered is the inode, on some other volume, over which this volume
	// is mounted. nil for the absolute root volume.
	Covered *INode
}

// NewVolume creates an empty volume with its own UUID and no inodes.
func NewVolume() *Volume {
	return &Volume{
		UUID:        uuid.New(),
		Inodes:      make(map[INumber]*INode),
		nextINumber: 1,
		BlockSize:   defaultBlockSize,
	}
}

// ClaimNextINumber allocates the next inumber on this volume. The first
// claim sets RootINum.
func (v *Volume) ClaimNextINumber() INumber {
	n := v.nextINumber
	if v.RootINum == 0 {
		v.RootINum = n
	}
	v.nextINumber++
	return n
}

// Root returns the volume's root inode, or nil if none has been claimed
// yet.
func (v *Volume) Root() *INode {
	if v.RootINum == 0 {
		return nil
	}
	return v.Inodes[v.RootINum]
}

// Add registers inode in the volume's inode table.
func (v *Volume) Add(inode *INode) {
	v.Inodes[inode.INumber] = inode
}

// Remove deletes an inode from the volume's inode table. Called once an
// unlinked inode's reference count reaches zero.
func (v *Volume) Remove(n INumber) {
	delete(v.Inodes, n)
}

// Size reports the aggregate block-rounded size of every inode held by
// the volume, in bytes.
func (v *Volume) Size() int64 {
	var total int64
	for _, in := range v.Inodes {
		sz := in.Data.Size()
		blocks := (sz + v.BlockSize - 1) / v.BlockSize
		total += blocks * v.BlockSize
	}
	return total
}
