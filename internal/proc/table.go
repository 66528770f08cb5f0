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

import "github.com/Iluvatar/unix74/internal/errno"

// Table is the kernel-global process table, keyed by pid.
type Table struct {
	entries map[PID]*Process
	next    PID
}

func NewTable() *Table {
	return &Table{entries: make(map[PID]*Process)}
}

// ClaimNextPid allocates a strictly increasing pid; pid 0 (swapper) is
// claimed first by the boot sequence.
func (t *Table) ClaimNextPid() PID {
	p := t.next
	t.next++
	return p
}

func (t *Table) Add(p *Process) {
	t.entries[p.Pid] = p
}

// Get returns the process entry for pid, or ESRCH if it doesn't exist.
func (t *Table) Get(pid PID) (*Process, error) {
	p, ok := t.entries[pid]
	if !ok {
		return nil, errno.New("", errno.ESRCH)
	}
	return p, nil
}

func (t *Table) Remove(pid PID) {
	delete(t.entries, pid)
}

func (t *Table) Len() int {
	return len(t.entries)
}

// All returns every live process entry, in no particular order.
func (t *Table) All() []*Process {
	out := make([]*Process, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, p)
	}
	return out
}
