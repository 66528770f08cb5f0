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

import "github.com/Iluvatar/unix74/internal/vfs"

// OpenFileTable is the kernel-global table of open-file descriptions, keyed
// by OFD. It is the single place shared offsets live, independent of which
// processes' fd tables reference them.
type OpenFileTable struct {
	entries map[OFD]*OpenFileDescription
	next    OFD
}

func NewOpenFileTable() *OpenFileTable {
	return &OpenFileTable{entries: make(map[OFD]*OpenFileDescription)}
}

// Open allocates a fresh OFD with refCount 1 for inode, opened with mode.
func (t *OpenFileTable) Open(inode *vfs.INode, mode OpenFlags) *OpenFileDescription {
	id := t.next
	t.next++
	ofd := &OpenFileDescription{ID: id, Mode: mode, Inode: inode, RefCount: 1}
	t.entries[id] = ofd
	return ofd
}

// Get looks up an OFD by id, for the rare caller that only has the id.
func (t *OpenFileTable) Get(id OFD) (*OpenFileDescription, bool) {
	o, ok := t.entries[id]
	return o, ok
}

// Retain increments refCount, for fork-time fd table duplication.
func (t *OpenFileTable) Retain(ofd *OpenFileDescription) {
	ofd.RefCount++
}

// Release decrements refCount and removes the entry once it reaches zero;
// reports whether the entry was removed.
func (t *OpenFileTable) Release(ofd *OpenFileDescription) bool {
	ofd.RefCount--
	if ofd.RefCount <= 0 {
		delete(t.entries, ofd.ID)
		return true
	}
	return false
}

// Count reports the number of live open-file descriptions, for metrics.
func (t *OpenFileTable) Count() int {
	return len(t.entries)
}
