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
	"crypto/sha256"
	"encoding/hex"

	"github.com/Iluvatar/unix74/internal/errno"
)

// BinaryData is an immutable executable image. Rather than embedding the
// program's source (as the source language did, for a content hash), it
// stores a stable program identifier that the kernel resolves through its
// program registry, plus a version string; Hash is the sha256 of the two
// joined by "@", per the "Binary programs" design note.
type BinaryData struct {
	Program string
	Version string
	hash    string
}

var _ INodeData = (*BinaryData)(nil)

func NewBinaryData(program, version string) *BinaryData {
	sum := sha256.Sum256([]byte(program + "@" + version))
	return &BinaryData{Program: program, Version: version, hash: hex.EncodeToString(sum[:])}
}

func (b *BinaryData) Hash() string { return b.hash }

func (b *BinaryData) Read(size int, offset int64) ([]byte, error) {
	return nil, errno.New(b.Program, errno.EACCES)
}

func (b *BinaryData) Write(data []byte, offset int64) (int, error) {
	return 0, errno.New(b.Program, errno.EACCES)
}

func (b *BinaryData) Append(data []byte) (int, error) {
	return 0, errno.New(b.Program, errno.EACCES)
}

func (b *BinaryData) Trunc() error {
	return errno.New(b.Program, errno.EACCES)
}

func (b *BinaryData) Size() int64 {
	return int64(len(b.hash))
}
