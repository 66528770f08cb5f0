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

package main

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iluvatar/unix74/internal/cfg"
)

// bindFlags registers every cfg.Config field as a persistent flag on cmd
// and binds it into viper, grounded on cmd/root.go's
// `cfg.BindFlags(rootCmd.PersistentFlags())` call. Defaults come from
// cfg.Default so the flag help text and the zero-flag behavior never
// drift apart.
func bindFlags(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	d := cfg.Default()

	flags.Uint32("root-uid", uint32(d.RootUid), "uid of the superuser account (decoded into the config; boot does not read it)")
	flags.Uint32("root-gid", uint32(d.RootGid), "gid of the superuser account (decoded into the config; boot does not read it)")
	flags.String("file-mode", strconv.FormatInt(int64(d.FileMode.Int()), 8), "default permission bits for regular files (decoded into the config; the kernel does not read it)")
	flags.String("dir-mode", strconv.FormatInt(int64(d.DirMode.Int()), 8), "default permission bits for directories (decoded into the config; the kernel does not read it)")
	flags.Bool("strace", d.Strace, "log every syscall at TRACE severity")
	flags.String("log-format", d.LogFormat, "log output format: text or json")
	flags.String("log-severity", d.LogSeverity, "minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR")
	flags.String("log-dir", d.LogDir, "directory for rotating log files; empty logs to stderr")
	flags.String("metrics-addr", d.MetricsAddr, "address to serve /metrics on; empty disables the metrics server")
	flags.Int("max-open-files", d.MaxOpenFiles, "open-file limit, 0 to auto-detect from RLIMIT_NOFILE (decoded into the config; the kernel's open-file table has no cap)")

	return viper.BindPFlags(flags)
}
