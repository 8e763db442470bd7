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

//go:build linux

package workerpool

import "golang.org/x/sys/unix"

// nextWorkerID is called exactly once per worker goroutine, right
// after it locks itself to its OS thread, so the returned id is the
// real kernel thread id for that goroutine's entire lifetime.
func nextWorkerID() WorkerID {
	return WorkerID(unix.Gettid())
}

// CurrentThreadID reports the calling goroutine's real kernel thread
// id. It is stable across any number of calls from a goroutine that
// has locked itself to its OS thread (runtime.LockOSThread, as every
// pool worker does), which is what lets ambient, handle-free lookups
// deep in a call graph agree with the WorkerID a Handle was built
// with. An ordinary, unlocked goroutine may migrate OS threads between
// any two calls, so this is only meaningful from inside a pinned
// worker.
func CurrentThreadID() (WorkerID, bool) {
	return WorkerID(unix.Gettid()), true
}
