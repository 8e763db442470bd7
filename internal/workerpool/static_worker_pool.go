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

// Package workerpool runs a fixed set of long-lived goroutines, each
// pinned to its own OS thread for its entire lifetime. It exists to
// give the dropin package a stable notion of "the calling thread":
// code that wants ambient, thread-local state (the open backpack
// bound to the current scope) must run as a job on this pool, and is
// handed the WorkerID its goroutine was pinned under so it can key
// into thread-local storage without a global goroutine-local hack.
package workerpool

import (
	"errors"
	"runtime"
	"sync"

	"github.com/googlecloudplatform/backpackfs/internal/logger"
)

// WorkerID identifies one pinned worker goroutine for the lifetime of
// the pool. It is assigned once, when the worker starts, and handed to
// every job that worker runs.
type WorkerID int64

// Job is a unit of work submitted to the pool. It receives the
// WorkerID of the goroutine running it.
type Job func(id WorkerID)

// Pool is a static (non-growing) worker pool with two priority tiers.
// Priority jobs are always drained ahead of normal jobs on a worker
// that can run either.
type Pool struct {
	priorityCh chan Job
	normalCh   chan Job
	quit       chan struct{}
	wg         sync.WaitGroup
	stopOnce   sync.Once
}

// NewStaticWorkerPool starts priorityWorkers goroutines that only ever
// run priority jobs, and normalWorkers goroutines that run priority
// jobs first and fall back to normal jobs. It returns an error if both
// counts are zero, since a pool with no workers can never drain its
// queues.
func NewStaticWorkerPool(priorityWorkers, normalWorkers uint32) (*Pool, error) {
	if priorityWorkers == 0 && normalWorkers == 0 {
		return nil, errors.New("workerpool: at least one priority or normal worker is required")
	}

	p := &Pool{
		priorityCh: make(chan Job, 256),
		normalCh:   make(chan Job, 256),
		quit:       make(chan struct{}),
	}

	for i := uint32(0); i < priorityWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(true)
	}
	for i := uint32(0); i < normalWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(false)
	}

	logger.Debugf("workerpool: started %d priority and %d normal workers", priorityWorkers, normalWorkers)
	return p, nil
}

func (p *Pool) runWorker(priorityOnly bool) {
	defer p.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	id := nextWorkerID()

	for {
		// Always prefer a ready priority job before considering a
		// normal one or blocking.
		select {
		case job, ok := <-p.priorityCh:
			if !ok {
				return
			}
			job(id)
			continue
		default:
		}

		if priorityOnly {
			select {
			case job, ok := <-p.priorityCh:
				if !ok {
					return
				}
				job(id)
			case <-p.quit:
				return
			}
			continue
		}

		select {
		case job, ok := <-p.priorityCh:
			if !ok {
				return
			}
			job(id)
		case job, ok := <-p.normalCh:
			if !ok {
				return
			}
			job(id)
		case <-p.quit:
			return
		}
	}
}

// Submit enqueues job onto the normal queue.
func (p *Pool) Submit(job Job) {
	p.normalCh <- job
}

// SubmitPriority enqueues job onto the priority queue, which every
// worker drains before touching the normal queue.
func (p *Pool) SubmitPriority(job Job) {
	p.priorityCh <- job
}

// Stop closes both queues and waits for every worker to drain and
// exit. It is safe to call on a nil *Pool (the zero value returned
// alongside a construction error) and safe to call more than once.
func (p *Pool) Stop() {
	if p == nil {
		return
	}
	p.stopOnce.Do(func() {
		close(p.quit)
		close(p.priorityCh)
		close(p.normalCh)
		p.wg.Wait()
		logger.Debugf("workerpool: stopped")
	})
}
