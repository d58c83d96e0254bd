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

package syscalls

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"strideos.dev/strideos/pkg/kernel"
)

// TestSyscallTraceFields checks that every task-management entry point
// emits a trace record carrying the caller's pid and tid.
func TestSyscallTraceFields(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	old := logrus.GetLevel()
	logrus.SetLevel(logrus.TraceLevel)
	defer logrus.SetLevel(old)

	k := kernel.New()
	p := k.NewProcess("trace")
	p.NewTask(func(task *kernel.Task) {
		GetTime(task)
		Yield(task)
		Sleep(task, 1)
		SetPriority(task, 4)
	})

	if err := runQuiesce(t, k); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}

	want := map[string]bool{
		"sys_get_time":     false,
		"sys_yield":        false,
		"sys_sleep":        false,
		"sys_set_priority": false,
	}
	for _, e := range hook.AllEntries() {
		if _, ok := want[e.Message]; !ok {
			continue
		}
		if _, ok := e.Data["pid"]; !ok {
			t.Errorf("%s: trace entry missing pid field", e.Message)
		}
		if _, ok := e.Data["tid"]; !ok {
			t.Errorf("%s: trace entry missing tid field", e.Message)
		}
		want[e.Message] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("no trace entry for %s", name)
		}
	}
}
