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

// Package cfg is the kernel's boot-time configuration, decoded by Viper
// from flags, environment, and an optional YAML file, grounded on the
// teacher's cfg.Config/cfg.Octal split.
package cfg

import (
	"golang.org/x/sys/unix"

	"github.com/Iluvatar/unix74/internal/perm"
)

// Config holds every boot-time parameter the kernel and CLI need.
type Config struct {
	RootUid perm.UID `mapstructure:"root-uid"`
	RootGid perm.GID `mapstructure:"root-gid"`

	FileMode perm.FilePermissions `mapstructure:"file-mode"`
	DirMode  perm.FilePermissions `mapstructure:"dir-mode"`

	Strace bool `mapstructure:"strace"`

	LogFormat   string `mapstructure:"log-format"`
	LogSeverity string `mapstructure:"log-severity"`
	LogDir      string `mapstructure:"log-dir"`

	MetricsAddr string `mapstructure:"metrics-addr"`

	// MaxOpenFiles is an open-file limit; zero means auto-detect from the
	// host's RLIMIT_NOFILE (ResolveMaxOpenFiles), grounded on gcsfuse's
	// fs.ChooseTempDirLimitNumFiles rlimit heuristic. The kernel does not
	// read it: its global open-file table has no cap. RootUid, RootGid,
	// FileMode and DirMode are likewise decoded but not read by boot or
	// the kernel.
	MaxOpenFiles int `mapstructure:"max-open-files"`
}

// Default returns the configuration the CLI starts from before flags/env
// are applied.
func Default() Config {
	return Config{
		RootUid:      0,
		RootGid:      0,
		FileMode:     perm.Parse(0644),
		DirMode:      perm.Parse(0755),
		LogFormat:    "text",
		LogSeverity:  "INFO",
		MaxOpenFiles: 0,
	}
}

// ResolveMaxOpenFiles returns c.MaxOpenFiles if set, else the host's soft
// RLIMIT_NOFILE, matching fs.ChooseTempDirLimitNumFiles's fallback
// behavior but applied here to the kernel's OFD table instead of a
// temp-dir file count.
func (c Config) ResolveMaxOpenFiles() int {
	if c.MaxOpenFiles > 0 {
		return c.MaxOpenFiles
	}

	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return 256
	}
	if rlimit.Cur > 1<<20 {
		return 1 << 20
	}
	return int(rlimit.Cur)
}
