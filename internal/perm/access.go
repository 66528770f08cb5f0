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

package perm

import "github.com/Iluvatar/unix74/internal/errno"

// Principal is the minimal identity perm needs to evaluate an access
// check: a process's effective uid/gid. Kept here rather than importing
// proc.Process so perm has no dependency on the process table.
type Principal struct {
	EUID UID
	EGID GID
}

// Access implements the classical single-class check: owner class is
// tried first and, if it applies, decides the outcome even if group or
// other would have granted it. Superuser is granted everything except
// EXEC when no user class has exec set at all.
func Access(who Principal, owner UID, group GID, permissions FilePermissions, requested Mode) error {
	if who.EUID == 0 {
		if requested&EXEC != 0 {
			anyExec := permissions.Owner&EXEC != 0 || permissions.Group&EXEC != 0 || permissions.Other&EXEC != 0
			if !anyExec {
				return errno.New("", errno.EACCES)
			}
		}
		return nil
	}

	switch {
	case who.EUID == owner:
		if !requested.Subset(permissions.Owner) {
			return errno.New("", errno.EACCES)
		}
	case who.EGID == group:
		if !requested.Subset(permissions.Group) {
			return errno.New("", errno.EACCES)
		}
	default:
		if !requested.Subset(permissions.Other) {
			return errno.New("", errno.EACCES)
		}
	}
	return nil
}
