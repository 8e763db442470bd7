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
	"errors"
	"io"
	"io/fs"
	"os"
)

// RawFile is a uniform stream surface over either an OS file handle or
// a logical in-memory file (spec.md 4.D).
type RawFile struct {
	name    string
	hasName bool

	disk *os.File      // nil when backed by memory
	mem  *InMemoryFile // nil when backed by disk
}

// RawFileFromDisk wraps an already-open OS file with no associated name.
func RawFileFromDisk(f *os.File) *RawFile {
	return &RawFile{disk: f}
}

// RawFileFromInMemory wraps an InMemoryFile.
func RawFileFromInMemory(f *InMemoryFile) *RawFile {
	rf := &RawFile{mem: f}
	if name, ok := f.Name(); ok {
		rf.name, rf.hasName = name, true
	}
	return rf
}

// RawFileInMemory creates a fresh named in-memory raw file, the
// typical way to hand an anonymous buffer to BackPack.Create.
func RawFileInMemory(name string) *RawFile {
	return RawFileFromInMemory(NewInMemoryFile(name))
}

// RawFileFromBytes wraps raw bytes as an unnamed in-memory raw file.
func RawFileFromBytes(data []byte) *RawFile {
	return RawFileFromInMemory(NewInMemoryFileFromBytes(data))
}

// RawFileFromString wraps a string as an unnamed in-memory raw file.
func RawFileFromString(s string) *RawFile {
	return RawFileFromBytes([]byte(s))
}

// CreateRawFile creates (truncating) the named file on the host
// filesystem and wraps it.
func CreateRawFile(path string) (*RawFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errIo(err)
	}
	return &RawFile{name: path, hasName: true, disk: f}, nil
}

// OpenRawFile opens the named file on the host filesystem for reading
// and writing, so the result can be handed to both pack.Open (which
// only reads) and pack.Create/Flush (which rewrites in place).
func OpenRawFile(path string) (*RawFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errIo(err)
	}
	return &RawFile{name: path, hasName: true, disk: f}, nil
}

// OpenRawFileReadOnly opens the named file for reading only, for
// callers (AddFile's source stream) that never need to write back to
// it.
func OpenRawFileReadOnly(path string) (*RawFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errIo(err)
	}
	return &RawFile{name: path, hasName: true, disk: f}, nil
}

// WithName returns a copy of rf with its name replaced.
func (rf *RawFile) WithName(name string) *RawFile {
	if rf.disk != nil {
		return &RawFile{name: name, hasName: true, disk: rf.disk}
	}
	return &RawFile{name: name, hasName: true, mem: rf.mem.WithName(name)}
}

// Name reports the raw file's associated path, if any.
func (rf *RawFile) Name() (string, bool) {
	if rf.disk != nil {
		return rf.name, rf.hasName
	}
	return rf.mem.Name()
}

// IsDisk reports whether this raw file is backed by the host filesystem.
func (rf *RawFile) IsDisk() bool {
	return rf.disk != nil
}

// IntoMemory returns the wrapped InMemoryFile without any I/O, failing
// if this raw file is disk-backed.
func (rf *RawFile) IntoMemory() (*InMemoryFile, bool) {
	if rf.mem == nil {
		return nil, false
	}
	return rf.mem, true
}

// ConvertIntoMemory drains a disk-backed raw file into an in-memory
// file, preserving its path; a memory-backed raw file is returned as-is.
func (rf *RawFile) ConvertIntoMemory() (*InMemoryFile, error) {
	if rf.mem != nil {
		return rf.mem, nil
	}
	data, err := io.ReadAll(rf.disk)
	if err != nil {
		return nil, errIo(err)
	}
	if rf.hasName {
		return NewInMemoryFile(rf.name).WithName(rf.name).writeAll(data), nil
	}
	return NewInMemoryFileFromBytes(data), nil
}

// writeAll seeds f's buffer with data and rewinds to the start; used
// only by ConvertIntoMemory to build a Named file from drained bytes.
func (f *InMemoryFile) writeAll(data []byte) *InMemoryFile {
	f.buf = NewInMemoryBuf(data)
	return f
}

// CurrentOffset is equivalent to Seek(Current(0)).
func (rf *RawFile) CurrentOffset() (int64, error) {
	if rf.disk != nil {
		off, err := rf.disk.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, errIo(err)
		}
		return off, nil
	}
	return rf.mem.CurrentOffset(), nil
}

// SyncAll flushes file content and metadata to stable storage; a no-op
// for in-memory raw files.
func (rf *RawFile) SyncAll() error {
	if rf.disk != nil {
		return errIo(rf.disk.Sync())
	}
	return nil
}

// SyncData flushes file content to stable storage; a no-op for
// in-memory raw files.
func (rf *RawFile) SyncData() error {
	if rf.disk != nil {
		return errIo(rf.disk.Sync())
	}
	return nil
}

// Metadata returns OS file metadata; unsupported for in-memory files.
func (rf *RawFile) Metadata() (fs.FileInfo, error) {
	if rf.disk != nil {
		fi, err := rf.disk.Stat()
		if err != nil {
			return nil, errIo(err)
		}
		return fi, nil
	}
	return nil, errors.New("pack: metadata is unsupported for in-memory raw files")
}

// TryClone duplicates the handle. A disk-backed clone reopens the same
// path read-only, with its own file description and offset; a
// memory-backed clone (Packed only) shares the same buffer.
func (rf *RawFile) TryClone() (*RawFile, error) {
	if rf.disk != nil {
		dup, err := os.Open(rf.disk.Name())
		if err != nil {
			return nil, errIo(err)
		}
		return &RawFile{name: rf.name, hasName: rf.hasName, disk: dup}, nil
	}
	clone, err := rf.mem.TryClone()
	if err != nil {
		return nil, err
	}
	return &RawFile{name: rf.name, hasName: rf.hasName, mem: clone}, nil
}

// SetLen truncates or zero-extends the underlying stream.
func (rf *RawFile) SetLen(n int64) error {
	if rf.disk != nil {
		return errIo(rf.disk.Truncate(n))
	}
	return rf.mem.SetLen(n)
}

// Read implements io.Reader.
func (rf *RawFile) Read(p []byte) (int, error) {
	if rf.disk != nil {
		return rf.disk.Read(p)
	}
	return rf.mem.Read(p)
}

// Write implements io.Writer.
func (rf *RawFile) Write(p []byte) (int, error) {
	if rf.disk != nil {
		return rf.disk.Write(p)
	}
	return rf.mem.Write(p)
}

// Seek implements io.Seeker.
func (rf *RawFile) Seek(offset int64, whence int) (int64, error) {
	if rf.disk != nil {
		return rf.disk.Seek(offset, whence)
	}
	return rf.mem.Seek(offset, whence)
}

// Close releases any OS resources; a no-op for in-memory raw files.
func (rf *RawFile) Close() error {
	if rf.disk != nil {
		return errIo(rf.disk.Close())
	}
	return nil
}
