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

package pack

import (
	"encoding/binary"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackPack_EmptyRoundTrip(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))

	bp, err := Create(backing)
	require.NoError(t, err)
	f, err := bp.Close()
	require.NoError(t, err)

	mem, ok := f.IntoMemory()
	require.True(t, ok)
	raw, err := mem.GetBytes()
	require.NoError(t, err)
	require.Len(t, raw, int(PackHeaderSize))
	assert.Equal(t, []byte(PackMagic), raw[0:8])
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(raw[8:10]))
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(raw[10:18])) // TOTAL_SIZE
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(raw[18:26])) // FIRST_TOC

	bp2, err := Open(f)
	require.NoError(t, err)
	assert.Empty(t, bp2.Names())
	_, err = bp2.Close()
	require.NoError(t, err)
}

func TestBackPack_SingleSmallFile(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	_, err = bp.AddFileNamed(RawFileFromBytes([]byte("test")), "test.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(4), bp.MemoryBytes())

	f, err := bp.Close()
	require.NoError(t, err)

	bp2, err := Open(f)
	require.NoError(t, err)
	got, err := bp2.GetFile("test.txt")
	require.NoError(t, err)
	b, err := got.GetBytes()
	require.NoError(t, err)
	assert.Equal(t, "test", string(b))
}

func TestBackPack_AddRemoveFlush(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	_, err = bp.AddFileNamed(RawFileFromBytes([]byte("AA")), "a")
	require.NoError(t, err)
	_, err = bp.AddFileNamed(RawFileFromBytes([]byte("BBB")), "b")
	require.NoError(t, err)

	bp.RemoveFile("a")
	require.NoError(t, bp.Flush())

	f, err := bp.Close()
	require.NoError(t, err)

	bp2, err := Open(f)
	require.NoError(t, err)

	got, err := bp2.GetFile("b")
	require.NoError(t, err)
	b, err := got.GetBytes()
	require.NoError(t, err)
	assert.Equal(t, "BBB", string(b))

	_, err = bp2.GetFile("a")
	var packErr *PackError
	require.ErrorAs(t, err, &packErr)
	assert.Equal(t, KindFileNotFound, packErr.Kind)
}

func TestBackPack_VersionMismatch(t *testing.T) {
	raw := syntheticHeader(t, PackMagic, 0xFFFE)
	_, err := Open(RawFileFromBytes(raw))

	var packErr *PackError
	require.ErrorAs(t, err, &packErr)
	assert.Equal(t, KindIncompatible, packErr.Kind)
	assert.Equal(t, uint16(0xFFFE), packErr.Version)
}

func TestBackPack_BadMagic(t *testing.T) {
	raw := syntheticHeader(t, "NOTPACK\x00", PackVersion)
	_, err := Open(RawFileFromBytes(raw))

	var packErr *PackError
	require.ErrorAs(t, err, &packErr)
	assert.Equal(t, KindBadMagic, packErr.Kind)
}

func TestBackPack_RemovedNameNeverVisibleBeforeFlush(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	_, err = bp.AddFileNamed(RawFileFromBytes([]byte("x")), "a")
	require.NoError(t, err)
	bp.RemoveFile("a")

	_, err = bp.GetFile("a")
	assert.Error(t, err)
	assert.NotContains(t, bp.Names(), "a")
}

func TestBackPack_FlushPreservesHandleIdentityUntilReopen(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	f, err := bp.AddFileNamed(RawFileFromBytes([]byte("hello")), "a")
	require.NoError(t, err)

	require.NoError(t, bp.Flush())

	// The handle obtained before Flush is still valid afterwards,
	// against the same BackPack instance (spec.md 9, "outstanding
	// handles across flush").
	b, err := f.GetBytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestBackPack_WriteThroughPackedFileIsPermitted(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	f, err := bp.AddFileNamed(RawFileFromBytes([]byte("aaaa")), "a")
	require.NoError(t, err)

	n, err := f.Write([]byte("ZZZZZZ"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	require.NoError(t, bp.Flush())

	got, err := bp.GetFile("a")
	require.NoError(t, err)
	b, err := got.GetBytes()
	require.NoError(t, err)
	assert.Equal(t, "ZZZZZZ", string(b))
}

func TestBackPack_MultiBlockTOCRoundTrips(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	// Long names push entries across multiple 4096-byte TOC blocks.
	names := make([]string, 0, 64)
	longSuffix := make([]byte, 190)
	for i := range longSuffix {
		longSuffix[i] = 'x'
	}
	for i := 0; i < 64; i++ {
		name := fmt.Sprintf("%04d-%s", i, longSuffix)
		names = append(names, name)
		_, err := bp.AddFileNamed(RawFileFromBytes([]byte(name)), name)
		require.NoError(t, err)
	}

	f, err := bp.Close()
	require.NoError(t, err)

	bp2, err := Open(f)
	require.NoError(t, err)
	for _, name := range names {
		got, err := bp2.GetFile(name)
		require.NoError(t, err)
		b, err := got.GetBytes()
		require.NoError(t, err)
		assert.Equal(t, name, string(b))
	}
}

func TestBackPack_GetFileNotFound(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	_, err = bp.GetFile("nope")
	var packErr *PackError
	require.ErrorAs(t, err, &packErr)
	assert.Equal(t, KindFileNotFound, packErr.Kind)
}

func TestBackPack_AddFileWithNoNameFails(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	_, err = bp.AddFile(RawFileFromBytes([]byte("x")))
	assert.ErrorIs(t, err, ErrNoName)
}

func TestBackPack_CloseOnAlreadyClosedIsErrClosed(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	bp, err := Create(backing)
	require.NoError(t, err)

	_, err = bp.Close()
	require.NoError(t, err)

	_, err = bp.Close()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBackPack_OpenPartialIsUnimplemented(t *testing.T) {
	backing := RawFileFromInMemory(NewInMemoryFile("test.bp"))
	_, err := OpenPartial(backing)
	assert.ErrorIs(t, err, ErrNotImplemented)
}

// syntheticHeader hand-builds a minimal 26-byte header with the given
// magic/version, used to exercise Open's parse-failure paths without
// going through Create/Flush.
func syntheticHeader(t *testing.T, magic string, version uint16) []byte {
	t.Helper()
	require.Len(t, []byte(magic), 8)

	buf := make([]byte, PackHeaderSize)
	copy(buf[0:8], magic)
	binary.LittleEndian.PutUint16(buf[8:10], version)
	binary.LittleEndian.PutUint64(buf[10:18], 0)
	binary.LittleEndian.PutUint64(buf[18:26], 0)
	return buf
}

var _ io.Reader = (*InMemoryBuf)(nil)
