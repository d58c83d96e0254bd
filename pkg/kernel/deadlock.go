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

package kernel

// Banker's-algorithm safety check. The detector consumes a snapshot of one
// resource class's tables; the mutex and semaphore classes are evaluated
// separately, never merged into one matrix.

// tableSnapshot is a copy of one resource class's accounting state, taken
// while holding the process borrow so the detector sees consistent values.
type tableSnapshot struct {
	available  []int64
	need       [][]int64
	allocation [][]int64
}

func snapshotTables(available []int64, need, allocation [][]int64) tableSnapshot {
	s := tableSnapshot{
		available:  append([]int64(nil), available...),
		need:       make([][]int64, len(need)),
		allocation: make([][]int64, len(allocation)),
	}
	for i, row := range need {
		s.need[i] = append([]int64(nil), row...)
	}
	for i, row := range allocation {
		s.allocation[i] = append([]int64(nil), row...)
	}
	return s
}

// safe reports whether the snapshot describes a safe state: an ordering of
// the threads exists in which every recorded need can eventually be
// satisfied. The result does not depend on the order in which eligible
// threads are discovered.
func (s tableSnapshot) safe() bool {
	work := append([]int64(nil), s.available...)
	finish := make([]bool, len(s.need))
	for {
		progress := false
		for t := range s.need {
			if finish[t] || !rowFits(s.need[t], work) {
				continue
			}
			for r, units := range s.allocation[t] {
				work[r] += units
			}
			finish[t] = true
			progress = true
		}
		if !progress {
			break
		}
	}
	for _, f := range finish {
		if !f {
			return false
		}
	}
	return true
}

// rowFits reports whether every entry of need is covered by work.
func rowFits(need, work []int64) bool {
	for r, n := range need {
		if n > work[r] {
			return false
		}
	}
	return true
}
