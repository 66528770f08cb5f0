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

// RegularData is a plain byte buffer backing a REGULAR inode. All
// operations mutate the buffer directly; there is no copy-on-write or
// generation tracking (Non-goal: no real persistence).
type RegularData struct {
	buf []byte
}

var _ INodeData = (*RegularData)(nil)

func NewRegularData(initial []byte) *RegularData {
	buf := make([]byte, len(initial))
	copy(buf, initial)
	return &RegularData{buf: buf}
}

func (r *RegularData) Read(size int, offset int64) ([]byte, error) {
	if offset < 0 || offset >= int64(len(r.buf)) {
		return nil, nil
	}
	end := offset + int64(size)
	if end > int64(len(r.buf)) {
		end = int64(len(r.buf))
	}
	out := make([]byte, end-offset)
	copy(out, r.buf[offset:end])
	return out, nil
}

func (r *RegularData) Write(data []byte, offset int64) (int, error) {
	end := offset + int64(len(data))
	if end > int64(len(r.buf)) {
		grown := make([]byte, end)
		copy(grown, r.buf)
		r.buf = grown
	}
	copy(r.buf[offset:end], data)
	return len(data), nil
}

func (r *RegularData) Append(data []byte) (int, error) {
	r.buf = append(r.buf, data...)
	return len(data), nil
}

func (r *RegularData) Trunc() error {
	r.buf = r.buf[:0]
	return nil
}

func (r *RegularData) Size() int64 {
	return int64(len(r.buf))
}
