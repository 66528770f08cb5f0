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

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Iluvatar/unix74/internal/errno"
	"github.com/Iluvatar/unix74/internal/perm"
)

// VFS is the kernel's whole mounted-volume universe: every live volume
// keyed by its UUID, which one is the absolute root, and the mount table
// binding covered inodes to mounted volumes' roots.
type VFS struct {
	Volumes    map[uuid.UUID]*Volume
	RootVolume *Volume
	Mounts     *MountTable
	Clock      func() time.Time
}

func New(clock func() time.Time) *VFS {
	return &VFS{
		Volumes: make(map[uuid.UUID]*Volume),
		Mounts:  NewMountTable(),
		Clock:   clock,
	}
}

// AddVolume registers a volume so inodes on it can be resolved by its
// UUID. SetRoot also registers its volume and makes it the absolute root,
// replacing any earlier root.
func (f *VFS) AddVolume(v *Volume) {
	f.Volumes[v.UUID] = v
}

func (f *VFS) SetRoot(v *Volume) {
	f.AddVolume(v)
	f.RootVolume = v
}

// Mount grafts volume's root over the given inode: the kernel-level mount
// syscall handler is responsible for the superuser check; this just
// updates the mount table and the covered inode's IsMount bit.
func (f *VFS) Mount(covered *INode, volume *Volume) {
	f.AddVolume(volume)
	f.Mounts.Add(Mount{
		MountedFsId:      volume.UUID,
		MountedOnFsId:    covered.FilesystemId,
		MountedOnINumber: covered.INumber,
	})
	covered.IsMount = true
	volume.Covered = covered
}

// Unmount reverses Mount. It does not remove the mounted volume from
// f.Volumes; inodes already resolved on it remain valid until forgotten.
func (f *VFS) Unmount(volume *Volume) {
	if volume.Covered == nil {
		return
	}
	f.Mounts.Remove(volume.Covered.FilesystemId, volume.Covered.INumber)
	volume.Covered.IsMount = false
	volume.Covered = nil
}

// iget loads (filesystemId, inumber), forwarding across a mount point if
// the loaded inode is a mount covering inode.
func (f *VFS) iget(filesystemId uuid.UUID, inum INumber) (*INode, error) {
	volume, ok := f.Volumes[filesystemId]
	if !ok {
		return nil, errno.New("", errno.ENOENT)
	}
	in, ok := volume.Inodes[inum]
	if !ok {
		return nil, errno.New("", errno.ENOENT)
	}
	if in.IsMount {
		m, ok := f.Mounts.Lookup(in.FilesystemId, in.INumber)
		if !ok {
			return nil, errno.New("", errno.ENOENT)
		}
		mounted, ok := f.Volumes[m.MountedFsId]
		if !ok {
			return nil, errno.New("", errno.ENOENT)
		}
		return mounted.Root(), nil
	}
	return in, nil
}

// Op selects what Traverse does once it reaches the named entity.
type Op int

const (
	GET Op = iota
	CREATE
	CREATE_EXCLUSIVE
	PARENT
)

// PathContext is the process-specific state Traverse needs: the caller's
// current directory (for relative paths), identity (for access checks and
// for the owner/group of any inode it creates).
type PathContext struct {
	CurrentDir *INode
	Who        perm.Principal
}

// Traverse resolves path per spec: starting at the volume root for an
// absolute path or the caller's current directory otherwise, walking each
// "/"-separated component (requiring EXEC on each directory along the
// way), crossing mount points forward (via iget) and backward (".." at a
// mounted volume's root steps out to the covered inode's parent) — then,
// depending on op, returning the final node (GET/PARENT) or creating it
// (CREATE/CREATE_EXCLUSIVE).
func (f *VFS) Traverse(ctx PathContext, path string, op Op) (*INode, error) {
	if path == "" {
		return nil, errno.New(path, errno.ENOENT)
	}

	current := ctx.CurrentDir
	if strings.HasPrefix(path, "/") {
		current = f.RootVolume.Root()
	}

	trimmed := strings.TrimRight(path, "/")
	parts := strings.Split(trimmed, "/")

	walk := parts
	if op == CREATE || op == CREATE_EXCLUSIVE || op == PARENT {
		walk = parts[:len(parts)-1]
	}

	for _, part := range walk {
		if current.FileType != DIRECTORY {
			return nil, errno.New(path, errno.ENOTDIR)
		}
		if err := perm.Access(ctx.Who, current.Owner, current.Group, current.Permissions, perm.EXEC); err != nil {
			return nil, err
		}

		if part == "" {
			part = "."
		}

		volume := f.Volumes[current.FilesystemId]

		if volume.Root() != nil && volume.Root().INumber == current.INumber && part == ".." {
			if f.RootVolume.Root() == current {
				continue
			}
			covered := volume.Covered
			if covered == nil {
				return nil, errno.New(path, errno.ENOENT)
			}
			current = covered
		}

		dir, ok := current.Data.(*DirectoryData)
		if !ok {
			return nil, errno.New(path, errno.ENOTDIR)
		}
		childNum, err := dir.Lookup(part)
		if err != nil {
			return nil, errno.New(path, errno.ENOENT)
		}

		current, err = f.iget(current.FilesystemId, childNum)
		if err != nil {
			return nil, err
		}
	}

	switch op {
	case GET, PARENT:
		return current, nil

	case CREATE, CREATE_EXCLUSIVE:
		name := parts[len(parts)-1]
		if current.FileType != DIRECTORY {
			return nil, errno.New(path, errno.ENOTDIR)
		}
		dir, ok := current.Data.(*DirectoryData)
		if !ok {
			return nil, errno.New(path, errno.ENOTDIR)
		}

		if existingNum, err := dir.Lookup(name); err == nil {
			existing, err := f.iget(current.FilesystemId, existingNum)
			if err != nil {
				return nil, err
			}
			if op == CREATE_EXCLUSIVE {
				return nil, errno.New(path, errno.EEXIST)
			}
			return existing, nil
		}

		if err := perm.Access(ctx.Who, current.Owner, current.Group, current.Permissions, perm.WRITE); err != nil {
			return nil, err
		}

		volume := f.Volumes[current.FilesystemId]
		now := f.Clock()
		child := &INode{
			INumber:      volume.ClaimNextINumber(),
			Permissions:  current.Permissions,
			FileType:     REGULAR,
			Owner:        ctx.Who.EUID,
			Group:        ctx.Who.EGID,
			TimeCreated:  now,
			TimeModified: now,
			Data:         NewRegularData(nil),
			FilesystemId: volume.UUID,
			DeviceNumber: -1,
			References:   1,
		}
		volume.Add(child)
		if err := dir.AddChild(name, child.INumber); err != nil {
			return nil, err
		}
		return child, nil

	default:
		return nil, errno.New(path, errno.ENOSYS)
	}
}
