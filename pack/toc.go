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
	"sort"
)

// tocEntry is one (name -> virtual offset, length) row inside a TOC block.
type tocEntry struct {
	name   string
	offset uint64
	length uint64
}

func (t tocEntry) encodedSize() int {
	return 2 + len(t.name) + 8 + 8
}

// buildTOCBlocks packs name->(offset,length) entries into TOC_SIZE blocks,
// in ascending offset order, exactly matching spec.md 4.E.5 step 3: each
// block is filled greedily, a 10-byte (filled, next) header is fixed up once
// the block is full (or once entries are exhausted), and the block is
// zero-padded to TocSize. The `next` field of every block but the last is
// filled in afterwards once on-disk block positions are known.
func buildTOCBlocks(offsets map[string][2]uint64) [][]byte {
	if len(offsets) == 0 {
		return nil
	}

	entries := make([]tocEntry, 0, len(offsets))
	for name, key := range offsets {
		entries = append(entries, tocEntry{name: name, offset: key[0], length: key[1]})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].offset < entries[j].offset })

	var blocks [][]byte
	cur := make([]byte, tocHeaderSize, TocSize)

	flushBlock := func() {
		binary.LittleEndian.PutUint16(cur[0:2], uint16(len(cur)))
		padded := make([]byte, TocSize)
		copy(padded, cur)
		blocks = append(blocks, padded)
		cur = make([]byte, tocHeaderSize, TocSize)
	}

	for _, e := range entries {
		if len(cur)+e.encodedSize() > TocSize {
			flushBlock()
		}
		var nameLen [2]byte
		binary.LittleEndian.PutUint16(nameLen[:], uint16(len(e.name)))
		cur = append(cur, nameLen[:]...)
		cur = append(cur, e.name...)
		var offLen [16]byte
		binary.LittleEndian.PutUint64(offLen[0:8], e.offset)
		binary.LittleEndian.PutUint64(offLen[8:16], e.length)
		cur = append(cur, offLen[:]...)
	}
	flushBlock()

	return blocks
}

// linkTOCBlocks fixes up each block's NEXT_TOC_OFF field now that the
// on-disk position of every block is known; the last block's NEXT is 0.
func linkTOCBlocks(blocks [][]byte, firstBlockOffset uint64) {
	for i, block := range blocks {
		var next uint64
		if i+1 < len(blocks) {
			next = firstBlockOffset + uint64(i+1)*TocSize
		}
		binary.LittleEndian.PutUint64(block[2:10], next)
	}
}

// parseTOCBlock decodes filledAfterHeader bytes of entries (the block's
// FILLED count minus its 10-byte header) out of a raw TOC block body
// (the block minus that header) and merges the decoded entries into
// offsets.
func parseTOCBlock(filledAfterHeader uint16, body []byte, offsets map[string][2]uint64) error {
	var cur uint16
	for cur < filledAfterHeader {
		if int(cur)+2 > len(body) {
			return errIo(errTruncatedTOC)
		}
		nameLen := binary.LittleEndian.Uint16(body[cur : cur+2])
		cur += 2

		if int(cur)+int(nameLen)+16 > len(body) {
			return errIo(errTruncatedTOC)
		}
		rawName := make([]byte, nameLen)
		copy(rawName, body[cur:cur+nameLen])
		cur += nameLen

		offset := binary.LittleEndian.Uint64(body[cur : cur+8])
		cur += 8
		length := binary.LittleEndian.Uint64(body[cur : cur+8])
		cur += 8

		name, err := validUTF8(rawName)
		if err != nil {
			return errUtf8(err)
		}
		offsets[name] = [2]uint64{offset, length}
	}
	return nil
}

var errTruncatedTOC = &truncatedTOCError{}

type truncatedTOCError struct{}

func (*truncatedTOCError) Error() string { return "pack: truncated table of contents block" }
