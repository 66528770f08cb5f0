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

// Package boot builds the fixture volumes (root and /dev) and wires the
// kernel's first two processes, grounded on
// original_source/filesystem/filesystem_loader.py's makeRoot/makeDev and
// kernel/unix.py's startup().
package boot

import (
	"github.com/Iluvatar/unix74/internal/perm"
)

// defaultUid/defaultGid is the defaultdict(lambda: 512) fallback every
// unrecognized name in the original's users/groups maps resolves to.
const defaultUid perm.UID = 512
const defaultGid perm.GID = 512

var users = map[string]perm.UID{
	"root":     0,
	"liz":      128,
	"murtaugh": 129,
}

var groups = map[string]perm.GID{
	"root":     0,
	"liz":      128,
	"murtaugh": 129,
}

// ResolveUser returns the fixture uid for name, or the default (512) for
// any name not in the original's passwd map.
func ResolveUser(name string) perm.UID {
	if uid, ok := users[name]; ok {
		return uid
	}
	return defaultUid
}

// ResolveGroup returns the fixture gid for name, or the default (512) for
// any name not in the original's group map.
func ResolveGroup(name string) perm.GID {
	if gid, ok := groups[name]; ok {
		return gid
	}
	return defaultGid
}
