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

// Package perm implements the classical UNIX rwx permission model: the
// Mode/SetId bitmasks, the four-field FilePermissions record, and the
// owner/group/other access check.
package perm

import (
	"fmt"
	"strconv"
)

// Mode is the classical r/w/x triad, one field's worth of permission bits.
type Mode int

const (
	READ  Mode = 4
	WRITE Mode = 2
	EXEC  Mode = 1
)

const ModeAll = READ | WRITE | EXEC

// Subset reports whether every bit in m is also set in of.
func (m Mode) Subset(of Mode) bool {
	return m&of == m
}

func (m Mode) String() string {
	r, w, x := byte('-'), byte('-'), byte('-')
	if m&READ != 0 {
		r = 'r'
	}
	if m&WRITE != 0 {
		w = 'w'
	}
	if m&EXEC != 0 {
		x = 'x'
	}
	return string([]byte{r, w, x})
}

// SetId is the high-order bit triad: setuid, setgid, sticky.
type SetId int

const (
	SetUID SetId = 4
	SetGID SetId = 2
	Sticky SetId = 1
)

const SetIdAll = SetUID | SetGID | Sticky

// UID and GID are kept here, not in proc, so that perm has no dependency
// on the process package; proc uses these types directly.
type UID uint32
type GID uint32

// FilePermissions is the four 3-bit octal fields parsed from a single
// non-negative integer: high (setuid/setgid/sticky), owner, group, other.
type FilePermissions struct {
	High  SetId
	Owner Mode
	Group Mode
	Other Mode
}

// Parse clamps a negative value to zero and reduces anything else modulo
// 8^4, then splits it into four octal digits, matching the original
// kernel's FilePermissions.parsePermissions.
func Parse(octal int) FilePermissions {
	if octal < 0 {
		octal = 0
	}
	octal %= 8 * 8 * 8 * 8

	other := octal % 8
	group := (octal / 8) % 8
	owner := (octal / 64) % 8
	high := (octal / 512) % 8

	return FilePermissions{
		High:  SetId(high),
		Owner: Mode(owner),
		Group: Mode(group),
		Other: Mode(other),
	}
}

// Int reconstitutes the 4-digit octal integer encoding of p.
func (p FilePermissions) Int() int {
	return int(p.High)*512 + int(p.Owner)*64 + int(p.Group)*8 + int(p.Other)
}

func (p FilePermissions) String() string {
	return fmt.Sprintf("%04o", p.Int())
}

// MarshalText implements encoding.TextMarshaler, emitting the permissions
// as a base-8 string (e.g. "0644"), the same contract as the teacher's
// cfg.Octal type.
func (p FilePermissions) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%04o", p.Int())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *FilePermissions) UnmarshalText(text []byte) error {
	v, err := strconv.ParseInt(string(text), 8, 32)
	if err != nil {
		return fmt.Errorf("invalid file permissions %q: %w", text, err)
	}
	*p = Parse(int(v))
	return nil
}

// Field selects which of the four permission fields an Add/Remove call
// mutates.
type Field int

const (
	FieldHigh Field = iota
	FieldOwner
	FieldGroup
	FieldOther
)

// Add ORs bits into the given field. bits is a Mode for Owner/Group/Other
// or a SetId for High; callers pick the right constants for the field.
func (p *FilePermissions) Add(f Field, bits int) {
	switch f {
	case FieldHigh:
		p.High |= SetId(bits)
	case FieldOwner:
		p.Owner |= Mode(bits)
	case FieldGroup:
		p.Group |= Mode(bits)
	case FieldOther:
		p.Other |= Mode(bits)
	}
}

// Remove clears bits from the given field.
func (p *FilePermissions) Remove(f Field, bits int) {
	switch f {
	case FieldHigh:
		p.High &^= SetId(bits)
	case FieldOwner:
		p.Owner &^= Mode(bits)
	case FieldGroup:
		p.Group &^= Mode(bits)
	case FieldOther:
		p.Other &^= Mode(bits)
	}
}
