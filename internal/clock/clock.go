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

// Package clock provides an injectable time source, so that components
// which stamp times (the BackPack engine's creation and flush times)
// can be tested against a deterministic clock instead of wall time.
package clock

import "time"

// Clock abstracts time.Now so callers can substitute a SimulatedClock
// in tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock, backed by the system clock.
type RealClock struct{}

// Now returns the current local time.
func (RealClock) Now() time.Time {
	return time.Now()
}
