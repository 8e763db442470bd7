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

package dropin

import (
	"sync"

	"github.com/googlecloudplatform/backpackfs/internal/logger"
	"github.com/googlecloudplatform/backpackfs/internal/workerpool"
	"github.com/googlecloudplatform/backpackfs/pack"
)

var (
	poolOnce sync.Once
	pool     *workerpool.Pool

	// ambientBackpacks maps a pinned worker to the backpack its
	// ThreadLocalBackpack-policy files live in. It is populated lazily,
	// the first time a Handle in that worker asks for one.
	ambientBackpacks sync.Map // workerpool.WorkerID -> *pack.BackPack

	// threadConfigs is the thread-local configuration cell spec.md 4.F
	// describes: Scope/ScopeWithConfig install the running operation's
	// Config here, keyed by the pinned worker's WorkerID, so File's
	// package-level Create/Open can resolve the calling thread's
	// backend without a Handle threaded through the call graph.
	threadConfigs sync.Map // workerpool.WorkerID -> Config
)

func sharedPool() *workerpool.Pool {
	poolOnce.Do(func() {
		p, err := workerpool.NewStaticWorkerPool(1, 3)
		if err != nil {
			// Unreachable: the fixed counts above are never both zero.
			panic(err)
		}
		pool = p
	})
	return pool
}

// Handle is the capability a Scope closure runs with. It is bound to
// exactly one worker goroutine pinned to its own OS thread for as
// long as the scope runs, which is what makes ThreadLocalBackpack
// files from separate Scope calls land in separate backpacks even
// when the calls overlap in time.
type Handle struct {
	id  workerpool.WorkerID
	cfg Config
}

// Config returns the configuration this scope was opened with.
func (h *Handle) Config() Config { return h.cfg }

func (h *Handle) backpack() (*pack.BackPack, error) {
	return backpackFor(h.id)
}

// backpackFor resolves (lazily creating on first use) the ambient
// backpack bound to the pinned worker id. It is shared by Handle and
// by File's package-level Create/Open, which resolve id themselves via
// workerpool.CurrentThreadID instead of going through a Handle.
func backpackFor(id workerpool.WorkerID) (*pack.BackPack, error) {
	if v, ok := ambientBackpacks.Load(id); ok {
		return v.(*pack.BackPack), nil
	}
	bp, err := pack.Create(pack.RawFileFromInMemory(pack.NewUnnamedFile()))
	if err != nil {
		return nil, err
	}
	ambientBackpacks.Store(id, bp)
	logger.Debugf("dropin: opened ambient backpack for worker %d", id)
	return bp, nil
}

// Scope runs f on a pinned worker whose new files default to the
// thread-local backpack policy, and returns f's result. It is the Go
// analogue of wrapping a closure in a rayon scope backed by a
// thread-local backpack: everything f opens with Policy
// ThreadLocalBackpack shares one backpack for the duration of this
// call.
func Scope[T any](f func(h *Handle) T) T {
	return ScopeWithConfig(ThreadLocalConfig(), f)
}

// ScopeWithConfig is Scope with an explicit Config instead of the
// thread-local default.
func ScopeWithConfig[T any](cfg Config, f func(h *Handle) T) T {
	result := make(chan T, 1)
	sharedPool().SubmitPriority(func(id workerpool.WorkerID) {
		threadConfigs.Store(id, cfg)
		defer threadConfigs.Delete(id)
		result <- f(&Handle{id: id, cfg: cfg})
	})
	return <-result
}

// StopAmbientPool flushes and closes every ambient backpack still open
// from a ThreadLocalBackpack scope, then stops the shared worker pool.
// Call it during process shutdown; after it returns, a new Scope call
// starts a fresh pool and fresh ambient backpacks.
func StopAmbientPool() {
	if pool == nil {
		return
	}
	ambientBackpacks.Range(func(key, value any) bool {
		bp := value.(*pack.BackPack)
		if _, err := bp.Close(); err != nil {
			logger.Warnf("dropin: closing ambient backpack for worker %v: %v", key, err)
		}
		ambientBackpacks.Delete(key)
		return true
	})
	pool.Stop()
	poolOnce = sync.Once{}
	pool = nil
}
