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

import "errors"

// fileKind discriminates the three InMemoryFile variants from spec.md
// 4.C: a Named cursor owns its bytes and carries a path, an Unnamed
// cursor owns its bytes and carries no path, and a Packed file refers
// (not owns) to a buffer living inside a BackPack.
type fileKind int

const (
	kindNamed fileKind = iota
	kindUnnamed
	kindPacked
)

// InMemoryFile is a logical file: a Named/Unnamed cursor over owned
// bytes, or a Packed reference into a BackPack's buffer map.
type InMemoryFile struct {
	kind fileKind
	name string

	buf   *InMemoryBuf // Named, Unnamed
	slice *PackSlice   // Packed
}

// NewInMemoryFile creates an empty Named cursor over the given path.
func NewInMemoryFile(name string) *InMemoryFile {
	return &InMemoryFile{kind: kindNamed, name: name, buf: NewInMemoryBuf(nil)}
}

// NewUnnamedFile creates an empty cursor with no associated path.
func NewUnnamedFile() *InMemoryFile {
	return &InMemoryFile{kind: kindUnnamed, buf: NewInMemoryBuf(nil)}
}

// NewInMemoryFileFromBytes creates an Unnamed cursor seeded with data.
func NewInMemoryFileFromBytes(data []byte) *InMemoryFile {
	return &InMemoryFile{kind: kindUnnamed, buf: NewInMemoryBuf(data)}
}

func newPackedFile(name string, slice *PackSlice) *InMemoryFile {
	return &InMemoryFile{kind: kindPacked, name: name, slice: slice}
}

// Name reports the file's path, if it has one (Named and Packed do;
// Unnamed does not).
func (f *InMemoryFile) Name() (string, bool) {
	if f.kind == kindUnnamed {
		return "", false
	}
	return f.name, true
}

// WithName returns a copy of f with its name field replaced; an
// Unnamed file becomes Named.
func (f *InMemoryFile) WithName(name string) *InMemoryFile {
	switch f.kind {
	case kindNamed, kindUnnamed:
		return &InMemoryFile{kind: kindNamed, name: name, buf: f.buf}
	case kindPacked:
		return &InMemoryFile{kind: kindPacked, name: name, slice: f.slice}
	default:
		panic("pack: unreachable file kind")
	}
}

// SetLen resizes the backing buffer (Named/Unnamed) or the underlying
// packed slice (Packed).
func (f *InMemoryFile) SetLen(n int64) error {
	switch f.kind {
	case kindNamed, kindUnnamed:
		f.buf.SetLen(n)
		return nil
	case kindPacked:
		return f.slice.Resize(n)
	default:
		return errors.New("pack: unreachable file kind")
	}
}

// GetBytes returns a read-only snapshot of the file's current contents.
// For a Packed file this is a copy taken under the parent backpack's
// entry read lock; mutating the returned slice has no effect on the
// file.
func (f *InMemoryFile) GetBytes() ([]byte, error) {
	switch f.kind {
	case kindNamed, kindUnnamed:
		return f.buf.Bytes(), nil
	case kindPacked:
		return f.slice.Bytes()
	default:
		return nil, errors.New("pack: unreachable file kind")
	}
}

// Read implements io.Reader.
func (f *InMemoryFile) Read(p []byte) (int, error) {
	switch f.kind {
	case kindNamed, kindUnnamed:
		return f.buf.Read(p)
	case kindPacked:
		return f.slice.Read(p)
	default:
		return 0, errors.New("pack: unreachable file kind")
	}
}

// Write implements io.Writer. Writing to a Packed file is permitted
// (not forbidden): it writes through the slice into the backpack's
// buffer, per spec.md 4.C's adopted permissive policy.
func (f *InMemoryFile) Write(p []byte) (int, error) {
	switch f.kind {
	case kindNamed, kindUnnamed:
		return f.buf.Write(p)
	case kindPacked:
		return f.slice.Write(p)
	default:
		return 0, errors.New("pack: unreachable file kind")
	}
}

// Seek implements io.Seeker.
func (f *InMemoryFile) Seek(offset int64, whence int) (int64, error) {
	switch f.kind {
	case kindNamed, kindUnnamed:
		return f.buf.Seek(offset, whence)
	case kindPacked:
		return f.slice.Seek(offset, whence)
	default:
		return 0, errors.New("pack: unreachable file kind")
	}
}

// CurrentOffset is equivalent to Seek(0, io.SeekCurrent).
func (f *InMemoryFile) CurrentOffset() int64 {
	switch f.kind {
	case kindNamed, kindUnnamed:
		return f.buf.Position()
	case kindPacked:
		pos, _ := f.slice.Seek(0, 1)
		return pos
	default:
		return 0
	}
}

// TryClone duplicates the file; only defined for Packed variants,
// where it duplicates the slice handle over the same buffer.
func (f *InMemoryFile) TryClone() (*InMemoryFile, error) {
	if f.kind != kindPacked {
		return nil, errors.New("pack: try_clone is only defined for packed files")
	}
	return &InMemoryFile{kind: kindPacked, name: f.name, slice: f.slice.Clone()}, nil
}

// IsPacked reports whether this file's bytes live inside a backpack.
func (f *InMemoryFile) IsPacked() bool {
	return f.kind == kindPacked
}
