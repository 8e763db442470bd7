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

import "io"

// PackSlice is a cursor positioned inside a backpack-owned byte buffer,
// identified by the (start,length) key it was created with. It holds
// only a back-reference to its BackPack, never shared ownership: if the
// BackPack has been closed, every operation fails with ErrClosed rather
// than dereferencing freed state.
type PackSlice struct {
	start uint64
	end   uint64 // start+length at creation time; not re-derived after writes
	pos   int64

	pack *BackPack
}

func newPackSlice(start, length uint64, pack *BackPack) *PackSlice {
	return &PackSlice{start: start, end: start + length, pack: pack}
}

// Clone duplicates the cursor; the duplicate shares the same underlying
// buffer and starts at the same position as the original.
func (s *PackSlice) Clone() *PackSlice {
	return &PackSlice{start: s.start, end: s.end, pos: s.pos, pack: s.pack}
}

// Identifier returns the (start,length) pair that identifies this
// slice's entry in the parent backpack's buffer map.
func (s *PackSlice) Identifier() (uint64, uint64) {
	return s.start, s.end - s.start
}

func (s *PackSlice) entry() (*entry, error) {
	return s.pack.retrieveEntry(s.start, s.end-s.start)
}

// Read implements io.Reader by delegating to the parent backpack's
// buffer map under the entry's read lock.
func (s *PackSlice) Read(p []byte) (int, error) {
	e, err := s.entry()
	if err != nil {
		return 0, err
	}
	n, err := e.readAt(s.pos, p)
	s.pos += int64(n)
	return n, err
}

// Write implements io.Writer by delegating to the parent backpack's
// buffer map under the entry's write lock. Writes beyond the current
// buffer length extend it.
func (s *PackSlice) Write(p []byte) (int, error) {
	e, err := s.entry()
	if err != nil {
		return 0, err
	}
	n, err := e.writeAt(s.pos, p)
	s.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (s *PackSlice) Seek(offset int64, whence int) (int64, error) {
	e, err := s.entry()
	if err != nil {
		return 0, err
	}
	length := e.size()

	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		newPos = length + offset
	default:
		return 0, errIo(errInvalidWhence)
	}
	if newPos < 0 {
		newPos = 0
	}
	s.pos = newPos
	return s.pos, nil
}

// Resize truncates or zero-extends the underlying buffer to n bytes.
func (s *PackSlice) Resize(n int64) error {
	e, err := s.entry()
	if err != nil {
		return err
	}
	e.resize(n)
	return nil
}

// Bytes returns a snapshot of the underlying buffer's current contents.
func (s *PackSlice) Bytes() ([]byte, error) {
	e, err := s.entry()
	if err != nil {
		return nil, err
	}
	return e.snapshot(), nil
}
