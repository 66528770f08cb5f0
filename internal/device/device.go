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

// Package device implements the character-special file drivers mounted
// under /dev: null, console, and mem. Each satisfies vfs.INodeData so the
// VFS never needs to know a file is a device rather than a regular file.
package device

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/Iluvatar/unix74/internal/errno"
)

// NullData discards everything written to it and always reads as EOF,
// grounded on dev_files.py's DevNull.
type NullData struct{}

func NewNullData() *NullData { return &NullData{} }

func (d *NullData) Read(size int, offset int64) ([]byte, error) { return nil, nil }

func (d *NullData) Write(data []byte, offset int64) (int, error) { return len(data), nil }

func (d *NullData) Append(data []byte) (int, error) { return len(data), nil }

func (d *NullData) Trunc() error { return nil }

func (d *NullData) Size() int64 { return 0 }

// ConsoleData connects reads to a line of input and writes to an output
// sink, grounded on dev_files.py's DevConsole (input()/print()).
type ConsoleData struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsoleData(in io.Reader, out io.Writer) *ConsoleData {
	return &ConsoleData{in: bufio.NewReader(in), out: out}
}

// Read returns one line of input (including its trailing newline),
// truncated to size; EOF on the input yields whatever was read so far.
func (d *ConsoleData) Read(size int, offset int64) ([]byte, error) {
	line, err := d.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, errno.New("", errno.UNSPECIFIED)
	}
	if len(line) > size {
		line = line[:size]
	}
	return []byte(line), nil
}

func (d *ConsoleData) Write(data []byte, offset int64) (int, error) {
	fmt.Fprintln(d.out, string(data))
	return len(data), nil
}

func (d *ConsoleData) Append(data []byte) (int, error) {
	fmt.Fprintln(d.out, string(data))
	return len(data), nil
}

func (d *ConsoleData) Trunc() error { return nil }

func (d *ConsoleData) Size() int64 { return 0 }

// ProcessSnapshot is the (pid, uid, tty, command) tuple formatted into one
// /dev/mem record.
type ProcessSnapshot struct {
	Pid     int
	Uid     int
	TTY     int
	Command string
}

// MemData renders a live process listing on every read, one
// "pid.uid.tty.command" record per line, grounded on dev_files.py's Mem.
// lister is called fresh on every read so the listing always reflects the
// process table at read time.
type MemData struct {
	lister func() []ProcessSnapshot
}

func NewMemData(lister func() []ProcessSnapshot) *MemData {
	return &MemData{lister: lister}
}

func (d *MemData) render() string {
	procs := d.lister()
	lines := make([]string, 0, len(procs))
	for _, p := range procs {
		lines = append(lines, fmt.Sprintf("%d.%d.%d.%s", p.Pid, p.Uid, p.TTY, p.Command))
	}
	return strings.Join(lines, "\n")
}

func (d *MemData) Read(size int, offset int64) ([]byte, error) {
	s := d.render()
	if offset < 0 || int(offset) > len(s) {
		return nil, nil
	}
	end := int(offset) + size
	if end > len(s) {
		end = len(s)
	}
	return []byte(s[offset:end]), nil
}

func (d *MemData) Write(data []byte, offset int64) (int, error) {
	return 0, errno.New("", errno.EACCES)
}

func (d *MemData) Append(data []byte) (int, error) {
	return 0, errno.New("", errno.EACCES)
}

func (d *MemData) Trunc() error {
	return errno.New("", errno.EACCES)
}

func (d *MemData) Size() int64 {
	return int64(len(d.render()))
}
