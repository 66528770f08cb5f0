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

package boot

import (
	"time"

	"github.com/jacobsa/timeutil"

	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/program"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// binPrograms lists the identifiers BuildRoot populates /bin with, one
// executable inode per program.Standard() entry, so execve has real paths
// to resolve rather than only fork's direct-identifier shortcut.
var binPrograms = []string{"init", "sh", "cat", "ls", "true", "false"}

// origTime stamps every fixture inode that doesn't carry its own creation
// time, matching filesystem_loader.py's origTime constant.
var origTime = time.Date(1974, time.October, 17, 10, 14, 27, 0, time.UTC)

func addChildDir(volume *vfs.Volume, parent *vfs.INode, name string, permissions perm.FilePermissions, owner perm.UID, group perm.GID, created time.Time) *vfs.INode {
	dir := vfs.NewDirectoryData()
	child := &vfs.INode{
		INumber:      volume.ClaimNextINumber(),
		Permissions:  permissions,
		FileType:     vfs.DIRECTORY,
		Owner:        owner,
		Group:        group,
		TimeCreated:  created,
		TimeModified: created,
		Data:         dir,
		FilesystemId: volume.UUID,
		DeviceNumber: -1,
		References:   2,
	}
	volume.Add(child)
	dir.AddChild(".", child.INumber)
	dir.AddChild("..", parent.INumber)

	parentDir := parent.Data.(*vfs.DirectoryData)
	parentDir.AddChild(name, child.INumber)
	parent.References++
	return child
}

func addChildFile(volume *vfs.Volume, parent *vfs.INode, name string, data vfs.INodeData, fileType vfs.FileType, permissions perm.FilePermissions, owner perm.UID, group perm.GID, created time.Time) *vfs.INode {
	child := &vfs.INode{
		INumber:      volume.ClaimNextINumber(),
		Permissions:  permissions,
		FileType:     fileType,
		Owner:        owner,
		Group:        group,
		TimeCreated:  created,
		TimeModified: created,
		Data:         data,
		FilesystemId: volume.UUID,
		DeviceNumber: -1,
		References:   1,
	}
	volume.Add(child)
	parentDir := parent.Data.(*vfs.DirectoryData)
	parentDir.AddChild(name, child.INumber)
	return child
}

// regularPermissions strips the exec bit and every setid bit from parent's
// permissions, matching makeChildFile's default-permissions derivation in
// filesystem_loader.py.
func regularPermissions(parent perm.FilePermissions) perm.FilePermissions {
	p := parent
	p.High = 0
	p.Owner &^= perm.EXEC
	p.Group &^= perm.EXEC
	p.Other &^= perm.EXEC
	return p
}

// BuildRoot constructs the root volume exactly as makeRoot() does: bin,
// dev, etc (passwd/group), tmp (mode 01777), usr (with liz and murtaugh
// homes), var. clock is not used: every fixture inode is stamped with the
// original's fixed
// historical timestamps, not the live clock, matching filesystem_loader.py.
func BuildRoot(clock timeutil.Clock) (*vfs.Volume, error) {
	_ = clock
	volume := vfs.NewVolume()

	root := &vfs.INode{
		INumber:      volume.ClaimNextINumber(),
		Permissions:  perm.Parse(0755),
		FileType:     vfs.DIRECTORY,
		Owner:        ResolveUser("root"),
		Group:        ResolveGroup("root"),
		TimeCreated:  origTime,
		TimeModified: origTime,
		Data:         vfs.NewDirectoryData(),
		FilesystemId: volume.UUID,
		DeviceNumber: -1,
		References:   2,
	}
	volume.Add(root)
	rootDir := root.Data.(*vfs.DirectoryData)
	rootDir.AddChild(".", root.INumber)
	rootDir.AddChild("..", root.INumber)

	binDir := addChildDir(volume, root, "bin", perm.Parse(0755), root.Owner, root.Group, origTime)
	for _, identifier := range binPrograms {
		addChildFile(volume, binDir, identifier, vfs.NewBinaryData(identifier, program.Version), vfs.REGULAR,
			perm.Parse(0555), root.Owner, root.Group, origTime)
	}

	addChildDir(volume, root, "dev", perm.Parse(0755), root.Owner, root.Group, origTime)

	etcDir := addChildDir(volume, root, "etc", perm.Parse(0755), root.Owner, root.Group, origTime)
	addChildFile(volume, etcDir, "passwd", vfs.NewRegularData(readFixture("etc/passwd")), vfs.REGULAR,
		perm.Parse(0644), root.Owner, root.Group, origTime)
	addChildFile(volume, etcDir, "group", vfs.NewRegularData(readFixture("etc/group")), vfs.REGULAR,
		perm.Parse(0644), root.Owner, root.Group, origTime)

	addChildDir(volume, root, "tmp", perm.Parse(01777), root.Owner, root.Group, origTime)

	usrDir := addChildDir(volume, root, "usr", perm.Parse(0755), root.Owner, root.Group, origTime)
	buildLizHome(volume, usrDir)
	buildMurtaughHome(volume, usrDir)

	addChildDir(volume, root, "var", perm.Parse(0755), root.Owner, root.Group, origTime)

	return volume, nil
}

func buildLizHome(volume *vfs.Volume, usrDir *vfs.INode) {
	created := time.Date(1974, time.December, 2, 1, 24, 13, 0, time.UTC)
	uid, gid := ResolveUser("liz"), ResolveGroup("liz")
	home := addChildDir(volume, usrDir, "liz", perm.Parse(0755), uid, gid, created)
	addChildFile(volume, home, "note.txt", vfs.NewRegularData(readFixture("usr/liz/note.txt")), vfs.REGULAR,
		regularPermissions(home.Permissions), uid, gid, created)
}

func buildMurtaughHome(volume *vfs.Volume, usrDir *vfs.INode) {
	created := time.Date(1974, time.December, 18, 19, 1, 37, 0, time.UTC)
	uid, gid := ResolveUser("murtaugh"), ResolveGroup("murtaugh")
	home := addChildDir(volume, usrDir, "murtaugh", perm.Parse(0755), uid, gid, created)

	entries := []struct {
		name    string
		path    string
		created time.Time
	}{
		{"cat.txt", "usr/murtaugh/cat.txt", time.Date(1975, time.October, 14, 10, 58, 45, 0, time.UTC)},
		{"liz.txt", "usr/murtaugh/liz.txt", time.Date(1976, time.March, 26, 17, 12, 42, 0, time.UTC)},
		{"myself.txt", "usr/murtaugh/myself.txt", time.Date(1976, time.December, 13, 12, 51, 9, 0, time.UTC)},
		{"diary1.txt", "usr/murtaugh/diary1.txt", time.Date(1977, time.January, 8, 9, 2, 54, 0, time.UTC)},
		{"diary2.txt", "usr/murtaugh/diary2.txt", time.Date(1977, time.January, 8, 9, 2, 54, 0, time.UTC)},
		{"portal.txt", "usr/murtaugh/portal.txt", time.Date(1977, time.January, 8, 18, 17, 22, 0, time.UTC)},
	}
	for _, e := range entries {
		addChildFile(volume, home, e.name, vfs.NewRegularData(readFixture(e.path)), vfs.REGULAR,
			regularPermissions(home.Permissions), uid, gid, e.created)
	}
}
