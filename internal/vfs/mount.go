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

// Mount records that the root of MountedFsId has been grafted over the
// inode (MountedOnFsId, MountedOnINumber).
type Mount struct {
	MountedFsId      uuid.UUID
	MountedOnFsId    uuid.UUID
	MountedOnINumber INumber
}

type mountKey struct {
	fsId uuid.UUID
	inum INumber
}

// MountTable holds at most one Mount for any (mountedOnFsId,
// mountedOnINumber) pair.
type MountTable struct {
	byCovered map[mountKey]Mount
}

func NewMountTable() *MountTable {
	return &MountTable{byCovered: make(map[mountKey]Mount)}
}

func (t *MountTable) Add(m Mount) {
	t.byCovered[mountKey{m.MountedOnFsId, m.MountedOnINumber}] = m
}

func (t *MountTable) Remove(fsId uuid.UUID, inum INumber) {
	delete(t.byCovered, mountKey{fsId, inum})
}

func (t *MountTable) Lookup(fsId uuid.UUID, inum INumber) (Mount, bool) {
	m, ok := t.byCovered[mountKey{fsId, inum}]
	return m, ok
}

// List returns every mount currently installed, in no particular order.
func (t *MountTable) List() []Mount {
	out := make([]Mount, 0, len(t.byCovered))
	for _, m := range t.byCovered {
		out = append(out, m)
	}
	return out
}
