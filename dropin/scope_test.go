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
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScope_WritesStayOffDisk(t *testing.T) {
	defer StopAmbientPool()

	got := Scope(func(h *Handle) string {
		f, err := h.Create("test.txt")
		require.NoError(t, err)
		fmt.Fprintln(f, "yeet, this is not going to the filesystem!")

		_, err = f.Seek(0, io.SeekStart)
		require.NoError(t, err)
		b, err := io.ReadAll(f)
		require.NoError(t, err)
		return string(b)
	})

	assert.Equal(t, "yeet, this is not going to the filesystem!\n", got)
}

// A file created with one Handle inside a scope is visible to another
// Create/Open using the same Handle, since they share one ambient
// backpack for the life of the worker that ran the closure — the
// same thing a thread-local owned by a rayon worker thread would do.
func TestScope_FilesPersistAcrossCallsOnSameHandle(t *testing.T) {
	defer StopAmbientPool()

	Scope(func(h *Handle) struct{} {
		f, err := h.Create("shared.txt")
		require.NoError(t, err)
		_, err = f.Write([]byte("payload"))
		require.NoError(t, err)

		reopened, err := h.Open("shared.txt")
		require.NoError(t, err)
		b, err := io.ReadAll(reopened)
		require.NoError(t, err)
		assert.Equal(t, "payload", string(b))
		return struct{}{}
	})
}

func TestScope_OpenMissingNameFails(t *testing.T) {
	defer StopAmbientPool()

	Scope(func(h *Handle) struct{} {
		_, err := h.Open("never-created.txt")
		assert.Error(t, err)
		return struct{}{}
	})
}

func TestScopeWithConfig_OnDiskDelegatesToPackageLevel(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/on-disk.txt"

	ScopeWithConfig(Config{Policy: OnDisk}, func(h *Handle) struct{} {
		f, err := h.Create(path)
		require.NoError(t, err)
		_, err = f.Write([]byte("hello"))
		require.NoError(t, err)
		require.NoError(t, f.Close())
		return struct{}{}
	})
}
