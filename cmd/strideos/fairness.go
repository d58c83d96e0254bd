// Copyright 2026 The StrideOS Authors
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
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"strideos.dev/strideos/pkg/kernel"
	"strideos.dev/strideos/pkg/syscalls"
)

// Fairness implements subcommands.Command for the "fairness" command, which
// runs perpetually-ready tasks at doubling priorities and prints the ratio
// of dispatches each received. Under stride scheduling the ratios track the
// priorities.
type Fairness struct {
	tasks  int
	rounds int
}

// Name implements subcommands.Command.Name.
func (*Fairness) Name() string {
	return "fairness"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Fairness) Synopsis() string {
	return "measure stride-scheduler dispatch ratios"
}

// Usage implements subcommands.Command.Usage.
func (*Fairness) Usage() string {
	return `fairness [flags]`
}

// SetFlags implements subcommands.Command.SetFlags.
func (fa *Fairness) SetFlags(f *flag.FlagSet) {
	f.IntVar(&fa.tasks, "tasks", 3, "number of always-ready tasks")
	f.IntVar(&fa.rounds, "rounds", 6000, "total dispatches across all tasks")
}

// Execute implements subcommands.Command.Execute.
func (fa *Fairness) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	conf := args[0].(*config)

	k := kernel.New()
	p := k.NewProcess("fairness")

	// All tasks share one dispatch budget. The kernel runs a single
	// logical execution context, so plain ints need no locking.
	total := 0
	counts := make([]int, fa.tasks)
	prios := make([]int64, fa.tasks)

	for i := 0; i < fa.tasks; i++ {
		i := i
		prio := conf.DefaultPriority << i
		prios[i] = prio
		p.NewTask(func(t *kernel.Task) {
			if got := syscalls.SetPriority(t, prio); got != prio {
				logrus.Warnf("set_priority(%d) = %d", prio, got)
			}
			for total < fa.rounds {
				counts[i]++
				total++
				syscalls.Yield(t)
			}
		})
	}

	if err := k.Run(); err != nil {
		logrus.Errorf("kernel: %v", err)
		return subcommands.ExitFailure
	}

	base := counts[0]
	for i, c := range counts {
		ratio := 0.0
		if base > 0 {
			ratio = float64(c) / float64(base)
		}
		fmt.Printf("task %d: priority %4d  dispatches %6d  ratio %.2f\n", i, prios[i], c, ratio)
	}
	return subcommands.ExitSuccess
}
