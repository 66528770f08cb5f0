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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacobsa/timeutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Iluvatar/unix74/internal/boot"
	"github.com/Iluvatar/unix74/internal/cfg"
	"github.com/Iluvatar/unix74/internal/kernel"
	"github.com/Iluvatar/unix74/internal/kmetrics"
	"github.com/Iluvatar/unix74/internal/logger"
	"github.com/Iluvatar/unix74/internal/program"
)

var rootCmd = &cobra.Command{
	Use:   "unix74",
	Short: "Run an in-memory simulation of a 1970s UNIX kernel",
	Long: `unix74 boots a single-process simulation of a classical UNIX
kernel: syscall dispatch, an in-memory inode filesystem, process
fork/exec/wait/exit, and a handful of user binaries, grounded on the
original unix74 Python teaching kernel.`,
	RunE: run,
}

func init() {
	if err := bindFlags(rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, "unix74: binding flags:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var config cfg.Config
	if err := viper.Unmarshal(&config, viper.DecodeHook(cfg.DecodeHook())); err != nil {
		return fmt.Errorf("decoding configuration: %w", err)
	}

	severity := config.LogSeverity
	if config.Strace {
		severity = "TRACE"
	}
	logger.Init(logger.Config{
		Format:       config.LogFormat,
		Severity:     severity,
		RotateLogDir: config.LogDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	k := kernel.New(program.Standard(), timeutil.RealClock())

	group, groupCtx := errgroup.WithContext(ctx)

	if config.MetricsAddr != "" {
		group.Go(func() error {
			logger.Infof("metrics listening on %s", config.MetricsAddr)
			return kmetrics.Serve(config.MetricsAddr)
		})
	}

	if err := boot.Boot(groupCtx, k, timeutil.RealClock()); err != nil {
		return fmt.Errorf("booting kernel: %w", err)
	}

	group.Go(func() error {
		return k.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
