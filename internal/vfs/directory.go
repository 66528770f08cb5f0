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

import "github.com/Iluvatar/unix74/internal/errno"

// DirectoryData maps child name to inumber, preserving insertion order so
// that getdents returns entries deterministically. "." and ".." are
// ordinary entries in this map, added explicitly by whoever creates the
// directory.
type DirectoryData struct {
	order    []string
	children map[string]INumber
}

var _ INodeData = (*DirectoryData)(nil)

func NewDirectoryData() *DirectoryData {
	return &DirectoryData{children: make(map[string]INumber)}
}

// Lookup returns the inumber named by name, or ENOENT.
func (d *DirectoryData) Lookup(name string) (INumber, error) {
	n, ok := d.children[name]
	if !ok {
		return 0, errno.New(name, errno.ENOENT)
	}
	return n, nil
}

// AddChild records name -> inumber. An empty name is rejected with
// ENOENT, matching the original kernel's DirectoryData.addChild.
func (d *DirectoryData) AddChild(name string, inumber INumber) error {
	if name == "" {
		return errno.New("", errno.ENOENT)
	}
	if _, exists := d.children[name]; !exists {
		d.order = append(d.order, name)
	}
	d.children[name] = inumber
	return nil
}

// RemoveChild deletes name from the directory, or ENOENT if absent.
func (d *DirectoryData) RemoveChild(name string) error {
	if _, ok := d.children[name]; !ok {
		return errno.New(name, errno.ENOENT)
	}
	delete(d.children, name)
	for i, n := range d.order {
		if n == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return nil
}

// Entries returns the (name, inumber) pairs in insertion order.
func (d *DirectoryData) Entries() []DirEntry {
	out := make([]DirEntry, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, DirEntry{Name: name, INumber: d.children[name]})
	}
	return out
}

// DirEntry is one (name, inumber) pairing held by a directory. Entries
// leaves FilesystemId empty since a DirectoryData doesn't know which
// volume it lives on; getdents stamps it on from the directory inode's
// own FilesystemId to form a full Dentry before handing entries to user
// space.
type DirEntry struct {
	Name         string
	INumber      INumber
	FilesystemId string
}

func (d *DirectoryData) Read(size int, offset int64) ([]byte, error) {
	return nil, errno.New("", errno.EISDIR)
}

func (d *DirectoryData) Write(data []byte, offset int64) (int, error) {
	return 0, errno.New("", errno.EISDIR)
}

func (d *DirectoryData) Append(data []byte) (int, error) {
	return 0, errno.New("", errno.EISDIR)
}

func (d *DirectoryData) Trunc() error {
	return errno.New("", errno.EISDIR)
}

func (d *DirectoryData) Size() int64 {
	return int64(len(d.children))
}
