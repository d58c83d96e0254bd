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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(available []int64, need, allocation [][]int64) tableSnapshot {
	return snapshotTables(available, need, allocation)
}

func TestSafeNoThreads(t *testing.T) {
	require.True(t, snap([]int64{1, 2}, nil, nil).safe())
}

func TestSafeZeroNeeds(t *testing.T) {
	s := snap(
		[]int64{0},
		[][]int64{{0}, {0}},
		[][]int64{{1}, {0}},
	)
	require.True(t, s.safe())
}

func TestUnsafeCrossHold(t *testing.T) {
	// Thread 0 holds A and needs B; thread 1 holds B and needs A.
	s := snap(
		[]int64{0, 0},
		[][]int64{{0, 1}, {1, 0}},
		[][]int64{{1, 0}, {0, 1}},
	)
	require.False(t, s.safe())
}

func TestSafeChain(t *testing.T) {
	// Thread 1 can finish and release B, which lets thread 0 finish.
	s := snap(
		[]int64{0, 0},
		[][]int64{{0, 1}, {0, 0}},
		[][]int64{{1, 0}, {0, 1}},
	)
	require.True(t, s.safe())
}

func TestSafeMultiUnit(t *testing.T) {
	// A 3-unit semaphore with one unit free; each holder eventually
	// releases, so the queued request can be satisfied.
	s := snap(
		[]int64{1},
		[][]int64{{1}, {0}, {1}},
		[][]int64{{1}, {1}, {0}},
	)
	require.True(t, s.safe())
}

func TestUnsafeExhausted(t *testing.T) {
	s := snap(
		[]int64{0},
		[][]int64{{1}, {1}},
		[][]int64{{1}, {1}},
	)
	require.False(t, s.safe())
}

// TestOrderIndependence permutes the thread rows of several snapshots and
// requires the verdict to be identical regardless of the order in which
// eligible threads are discovered.
func TestOrderIndependence(t *testing.T) {
	cases := []struct {
		name       string
		available  []int64
		need       [][]int64
		allocation [][]int64
	}{
		{
			name:       "safe chain of three",
			available:  []int64{0, 0, 1},
			need:       [][]int64{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
			allocation: [][]int64{{1, 0, 0}, {0, 1, 0}, {0, 0, 0}},
		},
		{
			name:       "unsafe triangle",
			available:  []int64{0, 0, 0},
			need:       [][]int64{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
			allocation: [][]int64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		},
		{
			name:       "mixed units",
			available:  []int64{1, 0, 2},
			need:       [][]int64{{2, 0, 1}, {0, 1, 0}, {1, 0, 2}},
			allocation: [][]int64{{0, 1, 0}, {1, 0, 1}, {0, 0, 1}},
		},
	}

	perms := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, tc := range cases {
		base := snap(tc.available, tc.need, tc.allocation).safe()
		for _, perm := range perms {
			need := make([][]int64, len(perm))
			alloc := make([][]int64, len(perm))
			for i, row := range perm {
				need[i] = tc.need[row]
				alloc[i] = tc.allocation[row]
			}
			got := snap(tc.available, need, alloc).safe()
			assert.Equalf(t, base, got, "%s: verdict changed under row order %v", tc.name, perm)
		}
	}
}
