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

//go:build !linux

package workerpool

import "sync/atomic"

var syntheticWorkerID int64

// nextWorkerID is called exactly once per worker goroutine. Platforms
// without a cheap kernel thread id get a synthetic, process-unique one
// instead; it is just as stable for the goroutine's lifetime since
// runWorker only ever calls this once before it starts draining jobs.
func nextWorkerID() WorkerID {
	return WorkerID(atomic.AddInt64(&syntheticWorkerID, 1))
}

// CurrentThreadID is unsupported outside Linux: a synthetic WorkerID
// is only ever recorded once, at worker startup, with nothing cheap to
// re-derive it from later. Ambient, handle-free lookups therefore
// can't resolve the calling goroutine's worker on this platform; code
// that needs ThreadLocalBackpack here must go through a Handle.
func CurrentThreadID() (WorkerID, bool) {
	return 0, false
}
