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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Iluvatar/unix74/internal/errno"
	"github.com/Iluvatar/unix74/internal/perm"
)

var fixedClock = func() time.Time { return time.Unix(1, 0) }

// newRootVolume builds a one-directory volume: just "/", owned by root,
// mode 0755, with "." and ".." both pointing at itself.
func newRootVolume() *Volume {
	v := NewVolume()
	dirData := NewDirectoryData()
	root := &INode{
		Permissions:  perm.Parse(0755),
		FileType:     DIRECTORY,
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

// addSubdir creates a child directory of parent within volume, wiring up
// "." and ".." and bumping parent's link count for the child's "..".
func addSubdir(v *Volume, parent *INode, name string, mode perm.FilePermissions) *INode {
	dirData := NewDirectoryData()
	child := &INode{
		Permissions:  mode,
		FileType:     DIRECTORY,
		Owner:        0,
		Group:        0,
		Data:         dirData,
		FilesystemId: v.UUID,
		DeviceNumber: -1,
		References:   2,
	}
	child.INumber = v.ClaimNextINumber()
	v.Add(child)
	dirData.AddChild(".", child.INumber)
	dirData.AddChild("..", parent.INumber)
	parentDir := parent.Data.(*DirectoryData)
	parentDir.AddChild(name, child.INumber)
	parent.References++
	return child
}

func rootPrincipal() perm.Principal {
	return perm.Principal{EUID: 0, EGID: 0}
}

type VFSTest struct {
	suite.Suite
	vfs  *VFS
	vol  *Volume
	root *INode
}

func TestVFSSuite(t *testing.T) {
	suite.Run(t, new(VFSTest))
}

func (t *VFSTest) SetupTest() {
	t.vol = newRootVolume()
	t.vfs = New(fixedClock)
	t.vfs.SetRoot(t.vol)
	t.root = t.vol.Root()
}

func (t *VFSTest) ctx() PathContext {
	return PathContext{CurrentDir: t.root, Who: rootPrincipal()}
}

func (t *VFSTest) TestGet_Root() {
	in, err := t.vfs.Traverse(t.ctx(), "/", GET)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), t.root.INumber, in.INumber)
}

func (t *VFSTest) TestCreate_NewRegularFile() {
	in, err := t.vfs.Traverse(t.ctx(), "/foo.txt", CREATE)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), REGULAR, in.FileType)

	got, err := t.vfs.Traverse(t.ctx(), "/foo.txt", GET)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), in.INumber, got.INumber)
}

func (t *VFSTest) TestCreate_ExistingReturnsSameInode() {
	first, err := t.vfs.Traverse(t.ctx(), "/foo.txt", CREATE)
	require.NoError(t.T(), err)

	second, err := t.vfs.Traverse(t.ctx(), "/foo.txt", CREATE)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), first.INumber, second.INumber)
}

func (t *VFSTest) TestCreateExclusive_ExistingIsEEXIST() {
	_, err := t.vfs.Traverse(t.ctx(), "/foo.txt", CREATE)
	require.NoError(t.T(), err)

	_, err = t.vfs.Traverse(t.ctx(), "/foo.txt", CREATE_EXCLUSIVE)
	assert.Equal(t.T(), errno.EEXIST, errno.As(err))
}

func (t *VFSTest) TestGet_MissingIsENOENT() {
	_, err := t.vfs.Traverse(t.ctx(), "/nope.txt", GET)
	assert.Equal(t.T(), errno.ENOENT, errno.As(err))
}

func (t *VFSTest) TestParent_ReturnsContainingDirectory() {
	addSubdir(t.vol, t.root, "sub", perm.Parse(0755))

	in, err := t.vfs.Traverse(t.ctx(), "/sub/file.txt", PARENT)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), DIRECTORY, in.FileType)
}

func (t *VFSTest) TestTraverse_ThroughRegularFileIsENOTDIR() {
	t.vfs.Traverse(t.ctx(), "/foo.txt", CREATE)

	_, err := t.vfs.Traverse(t.ctx(), "/foo.txt/bar", GET)
	assert.Equal(t.T(), errno.ENOTDIR, errno.As(err))
}

func (t *VFSTest) TestAccess_DeniedWithoutDirectoryExec() {
	t.root.Permissions = perm.Parse(0600)
	nonOwner := PathContext{CurrentDir: t.root, Who: perm.Principal{EUID: 500, EGID: 500}}

	_, err := t.vfs.Traverse(nonOwner, "/anything", GET)
	assert.Equal(t.T(), errno.EACCES, errno.As(err))
}

func (t *VFSTest) TestMount_CrossesForwardAndBack() {
	mountPoint := addSubdir(t.vol, t.root, "mnt", perm.Parse(0755))

	other := newRootVolume()
	t.vfs.Mount(mountPoint, other)
	assert.True(t.T(), mountPoint.IsMount)

	// Forward: resolving into /mnt lands on other's root, not mountPoint.
	in, err := t.vfs.Traverse(t.ctx(), "/mnt", GET)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), other.Root().INumber, in.INumber)
	assert.Equal(t.T(), other.UUID, in.FilesystemId)

	// Creating inside the mounted volume lands there, not on the root volume.
	created, err := t.vfs.Traverse(t.ctx(), "/mnt/child.txt", CREATE)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), other.UUID, created.FilesystemId)

	// Backward: ".." from the mounted root steps out to the covered inode's
	// parent on the root volume.
	back, err := t.vfs.Traverse(t.ctx(), "/mnt/..", GET)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), t.root.INumber, back.INumber)
	assert.Equal(t.T(), t.vol.UUID, back.FilesystemId)
}

func (t *VFSTest) TestUnmount_UncoversMountPoint() {
	mountPoint := addSubdir(t.vol, t.root, "mnt", perm.Parse(0755))
	other := newRootVolume()
	t.vfs.Mount(mountPoint, other)

	t.vfs.Unmount(other)

	assert.False(t.T(), mountPoint.IsMount)
	in, err := t.vfs.Traverse(t.ctx(), "/mnt", GET)
	require.NoError(t.T(), err)
	assert.Equal(t.T(), mountPoint.INumber, in.INumber)
	assert.Equal(t.T(), t.vol.UUID, in.FilesystemId)
}
