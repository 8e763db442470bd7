// Copyright 2024 The Backpackfs Authors.
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

package workerpool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewStaticWorkerPool_Success(t *testing.T) {
	tests := []struct {
		name           string
		priorityWorker uint32
		normalWorker   uint32
	}{
		{"valid_workers", 5, 10},
		{"zero_normal_worker", 1, 0},
		{"zero_priority_worker", 0, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pool, err := NewStaticWorkerPool(tc.priorityWorker, tc.normalWorker)

			assert.NoError(t, err)
			assert.NotNil(t, pool)
			pool.Stop()
		})
	}
}

func TestNewStaticWorkerPool_Failure(t *testing.T) {
	pool, err := NewStaticWorkerPool(0, 0)

	assert.Error(t, err)
	assert.Nil(t, pool)
	pool.Stop() // Stop must be nil-safe.
}

func TestPool_SubmitRunsOnAWorker(t *testing.T) {
	pool, err := NewStaticWorkerPool(0, 2)
	assert.NoError(t, err)
	defer pool.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	var gotID WorkerID
	pool.Submit(func(id WorkerID) {
		gotID = id
		wg.Done()
	})
	wg.Wait()

	assert.NotZero(t, gotID)
}

func TestPool_SameWorkerSeesStableID(t *testing.T) {
	pool, err := NewStaticWorkerPool(0, 1)
	assert.NoError(t, err)
	defer pool.Stop()

	ids := make(chan WorkerID, 2)
	for i := 0; i < 2; i++ {
		pool.Submit(func(id WorkerID) { ids <- id })
	}

	first := <-ids
	second := <-ids
	assert.Equal(t, first, second)
}

func TestPool_PriorityJobsDrainFirst(t *testing.T) {
	pool, err := NewStaticWorkerPool(0, 1)
	assert.NoError(t, err)
	defer pool.Stop()

	block := make(chan struct{})
	pool.Submit(func(WorkerID) { <-block })

	var order []string
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(2)
	pool.Submit(func(WorkerID) {
		mu.Lock()
		order = append(order, "normal")
		mu.Unlock()
		wg.Done()
	})
	pool.SubmitPriority(func(WorkerID) {
		mu.Lock()
		order = append(order, "priority")
		mu.Unlock()
		wg.Done()
	})

	time.Sleep(10 * time.Millisecond)
	close(block)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"priority", "normal"}, order)
}
