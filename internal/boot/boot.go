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

package boot

import (
	"context"

	"github.com/jacobsa/timeutil"

	"github.com/Iluvatar/unix74/internal/device"
	"github.com/Iluvatar/unix74/internal/kernel"
)

// Boot builds the root and /dev fixture volumes and hands them to the
// kernel's own Boot, which installs the swapper process and starts init
// on the swapper's pid.
func Boot(ctx context.Context, k *kernel.Kernel, clock timeutil.Clock) error {
	root, err := BuildRoot(clock)
	if err != nil {
		return err
	}

	lister := func() []device.ProcessSnapshot {
		procs := k.Processes.All()
		out := make([]device.ProcessSnapshot, 0, len(procs))
		for _, p := range procs {
			out = append(out, device.ProcessSnapshot{
				Pid:     int(p.Pid),
				Uid:     int(p.RealUid),
				TTY:     p.TTY,
				Command: p.Command,
			})
		}
		return out
	}
	dev, err := BuildDev(lister)
	if err != nil {
		return err
	}

	return k.Boot(ctx, root, dev)
}
