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

// Package pack implements the backpack archive engine: a single-file
// container that aggregates many logical files behind a
// name -> (offset,length) table of contents, plus the cursor types
// (InMemoryBuf, PackSlice, InMemoryFile, RawFile) layered on top of it.
package pack

import (
	"encoding/binary"
	"io"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/googlecloudplatform/backpackfs/internal/clock"
	"github.com/googlecloudplatform/backpackfs/internal/logger"
	"github.com/googlecloudplatform/backpackfs/internal/metrics"
)

// Shape discriminates the two interior representations a BackPack can
// take (spec.md 3, 9). Only ShapeParsed is implemented; ShapePartially
// Parsed is a declared extension point that fails loudly rather than
// silently behaving like the full parse.
type Shape int

const (
	ShapeParsed Shape = iota
	ShapePartiallyParsed
)

// Stat summarizes a BackPack's bookkeeping state.
type Stat struct {
	Entries     int
	MemoryBytes int64
	CreatedAt   time.Time
	FlushedAt   time.Time
}

// BackPack is an open, mutable archive. The zero value is not usable;
// construct one with Create or Open.
type BackPack struct {
	shape Shape

	nameMu  sync.RWMutex
	names   map[string][2]uint64
	removed map[string]struct{}

	dataMu sync.Mutex // guards inserts into `data`, never its entries' contents
	data   map[[2]uint64]*entry

	totalBytes atomic.Uint64

	fileMu sync.Mutex
	file   *RawFile
	closed atomic.Bool

	clk       clock.Clock
	metrics   *metrics.Collector
	createdAt time.Time
	flushedAt atomic.Value
}

// Option configures optional collaborators of a BackPack.
type Option func(*BackPack)

// WithClock injects a Clock for timestamp bookkeeping; defaults to
// clock.RealClock{}.
func WithClock(c clock.Clock) Option {
	return func(bp *BackPack) { bp.clk = c }
}

// WithMetrics registers a metrics.Collector to observe add/remove/flush
// activity. Nil (the default) disables metrics entirely.
func WithMetrics(m *metrics.Collector) Option {
	return func(bp *BackPack) { bp.metrics = m }
}

func newBackPack(opts []Option) *BackPack {
	bp := &BackPack{
		shape:   ShapeParsed,
		names:   make(map[string][2]uint64),
		removed: make(map[string]struct{}),
		data:    make(map[[2]uint64]*entry),
		clk:     clock.RealClock{},
	}
	for _, opt := range opts {
		opt(bp)
	}
	bp.createdAt = bp.clk.Now()
	runtime.SetFinalizer(bp, finalizeBackPack)
	return bp
}

// finalizeBackPack is Go's analogue of Rust's Drop impl: if the
// garbage collector reclaims a BackPack that was never Close()d, make
// a best-effort flush rather than silently losing data, exactly as
// spec.md 4.E.6 / 9 documents for the Rust Drop path.
func finalizeBackPack(bp *BackPack) {
	if bp.closed.Load() {
		return
	}
	logger.Warnf("dropping unsaved backpack may panic; attempting best-effort cleanup")
	if err := bp.Flush(); err != nil {
		panic("backpack: failed to flush to disk on drop, backpack likely corrupted: " + err.Error())
	}
	logger.Debugf("successfully flushed")
}

// Create truncates backing to position 0 and returns a fresh, empty
// BackPack. The on-disk header is not written until the first Flush.
func Create(backing *RawFile, opts ...Option) (*BackPack, error) {
	if _, err := backing.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := backing.SetLen(0); err != nil {
		return nil, err
	}
	bp := newBackPack(opts)
	bp.file = backing
	return bp, nil
}

// Open parses an existing backpack from backing. Only the "complete"
// mode is implemented; OpenPartial is the unimplemented stub named in
// spec.md 3/9.
func Open(backing *RawFile, opts ...Option) (*BackPack, error) {
	return openComplete(backing, opts)
}

// OpenPartial is the declared-but-unimplemented partial-parse mode
// (spec.md 3, 9): it always fails with ErrNotImplemented.
func OpenPartial(backing *RawFile, opts ...Option) (*BackPack, error) {
	return nil, ErrNotImplemented
}

func openComplete(backing *RawFile, opts []Option) (*BackPack, error) {
	names, tocBlocks, err := parseHeaders(backing)
	if err != nil {
		return nil, err
	}
	sort.Slice(tocBlocks, func(i, j int) bool { return tocBlocks[i] < tocBlocks[j] })

	bp := newBackPack(opts)
	var total uint64
	for name, key := range names {
		onDisk := convertOffset(tocBlocks, key[0])
		if _, err := backing.Seek(int64(onDisk), io.SeekStart); err != nil {
			return nil, errIo(err)
		}
		buf := make([]byte, key[1])
		if _, err := io.ReadFull(backing, buf); err != nil {
			return nil, errIo(err)
		}
		bp.names[name] = key
		bp.data[key] = newEntry(buf)
		total += uint64(len(buf))
	}
	bp.totalBytes.Store(total)
	bp.file = backing
	return bp, nil
}

func parseHeaders(f *RawFile) (map[string][2]uint64, []uint64, error) {
	var magic [8]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, nil, errIo(err)
	}
	if string(magic[:]) != PackMagic {
		return nil, nil, errBadMagic()
	}

	var versionBytes [2]byte
	if _, err := io.ReadFull(f, versionBytes[:]); err != nil {
		return nil, nil, errIo(err)
	}
	version := binary.LittleEndian.Uint16(versionBytes[:])
	if version != PackVersion {
		return nil, nil, errIncompatible(version)
	}

	var sizeBytes [8]byte
	if _, err := io.ReadFull(f, sizeBytes[:]); err != nil {
		return nil, nil, errIo(err)
	}
	// TOTAL_SIZE is re-derived on open from the TOC itself; it is only
	// meaningful as a sanity check, exactly as in the original parser.
	_ = binary.LittleEndian.Uint64(sizeBytes[:])

	var firstTocBytes [8]byte
	if _, err := io.ReadFull(f, firstTocBytes[:]); err != nil {
		return nil, nil, errIo(err)
	}
	firstToc := binary.LittleEndian.Uint64(firstTocBytes[:])

	names := make(map[string][2]uint64)
	var tocBlocks []uint64

	next := firstToc
	for next != 0 {
		tocBlocks = append(tocBlocks, next)
		if _, err := f.Seek(int64(next), io.SeekStart); err != nil {
			return nil, nil, errIo(err)
		}

		var filledBytes [2]byte
		if _, err := io.ReadFull(f, filledBytes[:]); err != nil {
			return nil, nil, errIo(err)
		}
		filled := binary.LittleEndian.Uint16(filledBytes[:])

		var nextBytes [8]byte
		if _, err := io.ReadFull(f, nextBytes[:]); err != nil {
			return nil, nil, errIo(err)
		}
		next = binary.LittleEndian.Uint64(nextBytes[:])

		body := make([]byte, TocSize-tocHeaderSize)
		if _, err := io.ReadFull(f, body); err != nil {
			return nil, nil, errIo(err)
		}
		if filled < tocHeaderSize {
			return nil, nil, errIo(errTruncatedTOC)
		}
		if err := parseTOCBlock(filled-tocHeaderSize, body, names); err != nil {
			return nil, nil, err
		}
	}

	return names, tocBlocks, nil
}

// convertOffset turns a virtual payload offset (as if no TOC blocks
// existed) into its actual on-disk position, given the ascending
// on-disk positions of every TOC block. This mirrors spec.md 4.E.1's
// indirection exactly, including mutating the running offset as each
// block is considered in order (sortedTocLocations is ascending, so
// later comparisons see the already-shifted offset).
func convertOffset(sortedTocLocations []uint64, offset uint64) uint64 {
	offset += PackHeaderSize
	for _, loc := range sortedTocLocations {
		if loc <= offset {
			offset += TocSize
		}
	}
	return offset
}

// MemoryBytes returns the number of bytes currently used to store
// file contents. If a pack contains lots of files, this may warrant a
// Flush to shrink the live working set.
func (bp *BackPack) MemoryBytes() int64 {
	return int64(bp.totalBytes.Load())
}

// Stat reports bookkeeping information about the pack.
func (bp *BackPack) Stat() Stat {
	bp.nameMu.RLock()
	entries := len(bp.names)
	bp.nameMu.RUnlock()

	flushedAt, _ := bp.flushedAt.Load().(time.Time)
	return Stat{
		Entries:     entries,
		MemoryBytes: bp.MemoryBytes(),
		CreatedAt:   bp.createdAt,
		FlushedAt:   flushedAt,
	}
}

// retrieveEntry resolves a PackSlice's (start,length) identity to its
// live buffer entry. Dereferencing a slice from a closed backpack
// fails cleanly with ErrClosed rather than touching freed state.
func (bp *BackPack) retrieveEntry(start, length uint64) (*entry, error) {
	if bp.closed.Load() {
		return nil, ErrClosed
	}
	bp.dataMu.Lock()
	e, ok := bp.data[[2]uint64{start, length}]
	bp.dataMu.Unlock()
	if !ok {
		logger.Errorf("backpack: no such entry (%d,%d); only PackSlices obtained from this pack should be dereferenced", start, length)
		return nil, ErrInvalidEntry
	}
	return e, nil
}

// AddFile fully consumes f and inserts it under its own name, failing
// with ErrNoName if f carries none. Returns an InMemoryFile (Packed)
// referencing the newly inserted buffer.
func (bp *BackPack) AddFile(f *RawFile) (*InMemoryFile, error) {
	name, ok := f.Name()
	if !ok {
		return nil, ErrNoName
	}
	return bp.insert(name, f)
}

// AddFileNamed is AddFile, overriding the raw stream's name.
func (bp *BackPack) AddFileNamed(f *RawFile, name string) (*InMemoryFile, error) {
	return bp.insert(name, f.WithName(name))
}

// AddEmptyFile is a shortcut producing a zero-length entry.
func (bp *BackPack) AddEmptyFile(name string) (*InMemoryFile, error) {
	return bp.insert(name, RawFileFromBytes(nil).WithName(name))
}

func (bp *BackPack) insert(name string, f *RawFile) (*InMemoryFile, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errIo(err)
	}

	prev := bp.totalBytes.Add(uint64(len(data))) - uint64(len(data))
	key := [2]uint64{prev, uint64(len(data))}

	bp.dataMu.Lock()
	bp.data[key] = newEntry(data)
	bp.dataMu.Unlock()

	bp.nameMu.Lock()
	bp.names[name] = key
	delete(bp.removed, name)
	bp.nameMu.Unlock()

	if bp.metrics != nil {
		bp.metrics.IncAdd()
		bp.metrics.SetBytesUsed(float64(bp.MemoryBytes()))
	}

	return newPackedFile(name, newPackSlice(key[0], key[1], bp)), nil
}

// RemoveFile records name in the removal set; the entry is physically
// dropped only at the next Flush. Lookups honor the removal set
// immediately.
func (bp *BackPack) RemoveFile(name string) {
	bp.nameMu.Lock()
	if _, ok := bp.names[name]; ok {
		bp.removed[name] = struct{}{}
	}
	bp.nameMu.Unlock()

	if bp.metrics != nil {
		bp.metrics.IncRemove()
	}
}

// GetFile looks up name, honoring the removal set, and returns a
// Packed InMemoryFile over its buffer.
func (bp *BackPack) GetFile(name string) (*InMemoryFile, error) {
	bp.nameMu.RLock()
	defer bp.nameMu.RUnlock()

	if _, removed := bp.removed[name]; removed {
		return nil, errFileNotFound(name)
	}
	key, ok := bp.names[name]
	if !ok {
		return nil, errFileNotFound(name)
	}

	return newPackedFile(name, newPackSlice(key[0], key[1], bp)), nil
}

// Names returns the currently live entry names, honoring the removal
// set, in no particular order.
func (bp *BackPack) Names() []string {
	bp.nameMu.RLock()
	defer bp.nameMu.RUnlock()

	names := make([]string, 0, len(bp.names))
	for name := range bp.names {
		if _, removed := bp.removed[name]; removed {
			continue
		}
		names = append(names, name)
	}
	return names
}

// Flush rewrites the backing stream so its on-disk image matches the
// current {name -> bytes} association (spec.md 4.E.5). It is the only
// place physical removal happens, and the only place TOC blocks and
// payload offsets are recomputed.
func (bp *BackPack) Flush() error {
	if bp.shape == ShapePartiallyParsed {
		return ErrNotImplemented
	}

	start := bp.clk.Now()

	bp.nameMu.Lock()
	newPayload := make([]byte, 0, bp.totalBytes.Load())
	newOffsets := make(map[string][2]uint64, len(bp.names))

	bp.dataMu.Lock()
	entryCount := len(bp.data)
	for name, key := range bp.names {
		if _, removed := bp.removed[name]; removed {
			delete(bp.names, name)
			continue
		}
		e, ok := bp.data[key]
		if !ok {
			bp.dataMu.Unlock()
			bp.nameMu.Unlock()
			logger.Errorf("backpack: name %q references missing buffer entry (%d,%d)", name, key[0], key[1])
			return ErrInvalidEntry
		}
		contents := e.snapshot()
		newOffsets[name] = [2]uint64{uint64(len(newPayload)), uint64(len(contents))}
		newPayload = append(newPayload, contents...)
	}
	bp.dataMu.Unlock()
	// newOffsets feeds only the on-disk TOC below. bp.names/bp.data keep
	// their live (start,length) identities so outstanding PackSlice
	// handles stay valid across this Flush (spec.md 9).
	bp.removed = make(map[string]struct{})
	bp.nameMu.Unlock()

	bp.fileMu.Lock()
	defer bp.fileMu.Unlock()
	if bp.file == nil {
		return ErrClosed
	}

	if err := writeHeaders(bp.file, uint64(len(newPayload)), newOffsets); err != nil {
		return err
	}
	if _, err := bp.file.Write(newPayload); err != nil {
		return errIo(err)
	}

	bp.flushedAt.Store(bp.clk.Now())
	if bp.metrics != nil {
		bp.metrics.ObserveFlush(bp.clk.Now().Sub(start))
	}
	_ = entryCount

	return nil
}

// writeHeaders seeks the stream to 0 and writes the fixed header plus
// the TOC chain built from offsets.
func writeHeaders(f *RawFile, size uint64, offsets map[string][2]uint64) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errIo(err)
	}

	blocks := buildTOCBlocks(offsets)

	if _, err := f.Write([]byte(PackMagic)); err != nil {
		return errIo(err)
	}
	var versionBytes [2]byte
	binary.LittleEndian.PutUint16(versionBytes[:], PackVersion)
	if _, err := f.Write(versionBytes[:]); err != nil {
		return errIo(err)
	}
	var sizeBytes [8]byte
	binary.LittleEndian.PutUint64(sizeBytes[:], size)
	if _, err := f.Write(sizeBytes[:]); err != nil {
		return errIo(err)
	}

	var firstToc uint64
	if len(blocks) != 0 {
		firstToc = PackHeaderSize
	}
	var firstTocBytes [8]byte
	binary.LittleEndian.PutUint64(firstTocBytes[:], firstToc)
	if _, err := f.Write(firstTocBytes[:]); err != nil {
		return errIo(err)
	}

	if len(blocks) != 0 {
		linkTOCBlocks(blocks, PackHeaderSize)
		for _, block := range blocks {
			if _, err := f.Write(block); err != nil {
				return errIo(err)
			}
		}
	}

	return nil
}

// Close flushes then releases the backing stream, marking the pack
// closed. WARNING: letting a BackPack become unreachable without
// calling Close relies on the finalizer's best-effort flush, which may
// panic on failure; Close or CloseDropUnwrittenChanges is the only
// safe way to retire a BackPack.
func (bp *BackPack) Close() (*RawFile, error) {
	if err := bp.Flush(); err != nil {
		return nil, err
	}
	return bp.closeInternal()
}

// CloseDropUnwrittenChanges is Close without the preceding Flush: any
// changes since the last Flush are discarded.
func (bp *BackPack) CloseDropUnwrittenChanges() (*RawFile, error) {
	return bp.closeInternal()
}

func (bp *BackPack) closeInternal() (*RawFile, error) {
	bp.fileMu.Lock()
	defer bp.fileMu.Unlock()

	if bp.file == nil {
		return nil, ErrClosed
	}
	bp.closed.Store(true)
	f := bp.file
	bp.file = nil
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errIo(err)
	}
	runtime.SetFinalizer(bp, nil)
	return f, nil
}
