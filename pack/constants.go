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

// PackMagic is the leading 8 ASCII bytes every backpack file starts with.
const PackMagic = "BACKPACK"

// PackVersion is the container's current major format version.
const PackVersion uint16 = 1

// TocSize is the fixed size, in bytes, of a single table-of-contents block.
const TocSize = 4096

// PackHeaderSize is the size, in bytes, of the fixed file header
// (magic + version + total size + first TOC offset).
const PackHeaderSize = 8 + 2 + 8 + 8

// tocHeaderSize is the 10-byte (filled u16 + next-offset u64) header
// every TOC block starts with.
const tocHeaderSize = 2 + 8
