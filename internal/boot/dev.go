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
	"os"

	"github.com/Iluvatar/unix74/internal/device"
	"github.com/Iluvatar/unix74/internal/perm"
	"github.com/Iluvatar/unix74/internal/vfs"
)

// BuildDev constructs the /dev volume with null, console, and mem
// character-special inodes, mode 0666, matching makeDev() in
// filesystem_loader.py. lister backs /dev/mem's live process listing; a
// caller without a process table yet may pass a lister that returns nil.
func BuildDev(lister func() []device.ProcessSnapshot) (*vfs.Volume, error) {
	volume := vfs.NewVolume()

	devDir := &vfs.INode{
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
	volume.Add(devDir)
	dir := devDir.Data.(*vfs.DirectoryData)
	dir.AddChild(".", devDir.INumber)
	dir.AddChild("..", devDir.INumber)

	addDevice(volume, devDir, "null", device.NewNullData())
	addDevice(volume, devDir, "console", device.NewConsoleData(os.Stdin, os.Stdout))
	addDevice(volume, devDir, "mem", device.NewMemData(lister))

	return volume, nil
}

func addDevice(volume *vfs.Volume, devDir *vfs.INode, name string, data vfs.INodeData) {
	child := &vfs.INode{
		INumber:      volume.ClaimNextINumber(),
		Permissions:  perm.Parse(0666),
		FileType:     vfs.CHARACTER,
		Owner:        ResolveUser("root"),
		Group:        ResolveGroup("root"),
		TimeCreated:  origTime,
		TimeModified: origTime,
		Data:         data,
		FilesystemId: volume.UUID,
		DeviceNumber: 0,
		References:   1,
	}
	volume.Add(child)
	dir := devDir.Data.(*vfs.DirectoryData)
	dir.AddChild(name, child.INumber)
}
