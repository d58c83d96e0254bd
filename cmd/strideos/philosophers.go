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
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"strideos.dev/strideos/pkg/kernel"
	"strideos.dev/strideos/pkg/syscalls"
)

// Philosophers implements subcommands.Command for the "philosophers"
// command: dining philosophers over blocking mutexes with deadlock
// detection enabled. A vetoed fork pick is retried after an exponential
// backoff served as a kernel sleep, so every philosopher finishes.
type Philosophers struct {
	seats int
	meals int
}

// Name implements subcommands.Command.Name.
func (*Philosophers) Name() string {
	return "philosophers"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Philosophers) Synopsis() string {
	return "run dining philosophers under deadlock detection"
}

// Usage implements subcommands.Command.Usage.
func (*Philosophers) Usage() string {
	return `philosophers [flags]`
}

// SetFlags implements subcommands.Command.SetFlags.
func (ph *Philosophers) SetFlags(f *flag.FlagSet) {
	f.IntVar(&ph.seats, "seats", 5, "number of philosophers (and forks)")
	f.IntVar(&ph.meals, "meals", 10, "meals each philosopher must finish")
}

// Execute implements subcommands.Command.Execute.
func (ph *Philosophers) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	k := kernel.New()
	p := k.NewProcess("philosophers")
	p.SetDeadlockDetection(true)

	forks := make([]int32, ph.seats)
	for i := range forks {
		id, err := p.CreateMutex(true)
		if err != nil {
			logrus.Fatalf("creating fork %d: %v", i, err)
		}
		forks[i] = id
	}

	vetoes := make([]int, ph.seats)
	for i := 0; i < ph.seats; i++ {
		i := i
		left, right := forks[i], forks[(i+1)%ph.seats]
		p.NewTask(func(t *kernel.Task) {
			for meal := 0; meal < ph.meals; meal++ {
				b := backoff.NewExponentialBackOff()
				b.InitialInterval = time.Millisecond
				b.MaxInterval = 16 * time.Millisecond
				b.MaxElapsedTime = 0 // retry until the picks go through

				for {
					if s := syscalls.MutexLock(t, left); s == syscalls.DeadlockCode {
						vetoes[i]++
						sleepBackoff(t, b)
						continue
					}
					if s := syscalls.MutexLock(t, right); s == syscalls.DeadlockCode {
						vetoes[i]++
						syscalls.MutexUnlock(t, left)
						sleepBackoff(t, b)
						continue
					}
					break
				}
				syscalls.Sleep(t, 1) // eat
				syscalls.MutexUnlock(t, right)
				syscalls.MutexUnlock(t, left)
				syscalls.Yield(t) // think
			}
		})
	}

	if err := k.Run(); err != nil {
		logrus.Errorf("kernel: %v", err)
		return subcommands.ExitFailure
	}

	for i, v := range vetoes {
		fmt.Printf("philosopher %d: %d meals, %d vetoed picks\n", i, ph.meals, v)
	}
	return subcommands.ExitSuccess
}

// sleepBackoff serves the next backoff interval as a kernel sleep.
func sleepBackoff(t *kernel.Task, b backoff.BackOff) {
	d := b.NextBackOff()
	if d == backoff.Stop {
		d = time.Millisecond
	}
	ms := int64(d / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	syscalls.Sleep(t, ms)
}
