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

// Package dropin is a drop-in file facade: the same Create/Open/Read/
// Write/Seek surface as *os.File, backed by one of three policies —
// plain disk files, purely in-memory buffers, or entries inside a
// backpack bound to the current Scope. Most callers never need to
// know which backend they got.
package dropin

import "github.com/googlecloudplatform/backpackfs/internal/config"

// OpenPolicy is re-exported from internal/config so callers of this
// package don't need a second import for it.
type OpenPolicy = config.OpenPolicy

const (
	OnDisk              = config.OpenOnDisk
	InMemory             = config.OpenInMemory
	ThreadLocalBackpack  = config.OpenThreadLocalBackpack
)

// Config selects the backend new files are created against.
type Config struct {
	Policy OpenPolicy
}

// DefaultConfig opens files on disk, same as os.Create/os.Open.
func DefaultConfig() Config {
	return Config{Policy: OnDisk}
}

// ThreadLocalConfig opens files inside the ambient per-worker
// backpack. It is only meaningful inside Scope/ScopeWithConfig.
func ThreadLocalConfig() Config {
	return Config{Policy: ThreadLocalBackpack}
}

// InMemoryConfig opens files against a buffer that is never persisted;
// closing such a file discards its contents, and a later Open of the
// same name returns a fresh, empty file since nothing recorded it.
func InMemoryConfig() Config {
	return Config{Policy: InMemory}
}

// WithThreadLocal sets the policy to ThreadLocalBackpack and returns c
// for chaining, mirroring the builder style of Config.
func (c Config) WithThreadLocal() Config { c.Policy = ThreadLocalBackpack; return c }

// WithInMemory sets the policy to InMemory and returns c for chaining.
func (c Config) WithInMemory() Config { c.Policy = InMemory; return c }

// WithOnDisk sets the policy to OnDisk and returns c for chaining.
func (c Config) WithOnDisk() Config { c.Policy = OnDisk; return c }
