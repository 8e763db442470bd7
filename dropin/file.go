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
	"io/fs"

	"github.com/googlecloudplatform/backpackfs/internal/workerpool"
	"github.com/googlecloudplatform/backpackfs/pack"
)

// File multiplexes onto a disk file, an in-memory buffer, or an entry
// inside an ambient backpack, depending on the Config it was created
// with. Its method set mirrors *os.File closely enough to be used as
// a drop-in replacement in most code.
type File struct {
	inner *pack.RawFile
}

// ambientConfig resolves the calling goroutine's Config: the one most
// recently installed by an enclosing Scope/ScopeWithConfig for its
// pinned worker thread, or DefaultConfig (OnDisk) outside any scope or
// on a platform where workerpool.CurrentThreadID can't resolve the
// calling thread at all.
func ambientConfig() Config {
	id, ok := workerpool.CurrentThreadID()
	if !ok {
		return DefaultConfig()
	}
	if v, ok := threadConfigs.Load(id); ok {
		return v.(Config)
	}
	return DefaultConfig()
}

// Create opens name for writing under the calling goroutine's ambient
// configuration, resolved without a Handle threaded through the call
// graph, per spec.md's File::create(path). Outside any Scope this
// behaves exactly like a plain os.Create.
func Create(name string) (*File, error) {
	return createUnderPolicy(name, ambientConfig())
}

// Open is Create's read counterpart.
func Open(name string) (*File, error) {
	return openUnderPolicy(name, ambientConfig())
}

// CreateWithConfig is Create against an explicit Config instead of the
// calling thread's ambient one.
func CreateWithConfig(name string, cfg Config) (*File, error) {
	return createUnderPolicy(name, cfg)
}

// OpenWithConfig is Open against an explicit Config instead of the
// calling thread's ambient one.
func OpenWithConfig(name string, cfg Config) (*File, error) {
	return openUnderPolicy(name, cfg)
}

func createUnderPolicy(name string, cfg Config) (*File, error) {
	switch cfg.Policy {
	case OnDisk:
		raw, err := pack.CreateRawFile(name)
		if err != nil {
			return nil, err
		}
		return &File{inner: raw}, nil
	case InMemory:
		return &File{inner: pack.RawFileInMemory(name)}, nil
	case ThreadLocalBackpack:
		id, ok := workerpool.CurrentThreadID()
		if !ok {
			return nil, errNeedsScope
		}
		bp, err := backpackFor(id)
		if err != nil {
			return nil, err
		}
		mf, err := bp.AddEmptyFile(name)
		if err != nil {
			return nil, err
		}
		return &File{inner: pack.RawFileFromInMemory(mf)}, nil
	default:
		return nil, &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
	}
}

// openUnderPolicy mirrors createUnderPolicy for Open. Under the
// InMemory policy nothing durable ever recorded the file, so Open
// returns a fresh, empty in-memory file bound to name; bytes written
// under the same name earlier are not visible through it.
func openUnderPolicy(name string, cfg Config) (*File, error) {
	switch cfg.Policy {
	case OnDisk:
		raw, err := pack.OpenRawFile(name)
		if err != nil {
			return nil, err
		}
		return &File{inner: raw}, nil
	case InMemory:
		return &File{inner: pack.RawFileInMemory(name)}, nil
	case ThreadLocalBackpack:
		id, ok := workerpool.CurrentThreadID()
		if !ok {
			return nil, errNeedsScope
		}
		bp, err := backpackFor(id)
		if err != nil {
			return nil, err
		}
		mf, err := bp.GetFile(name)
		if err != nil {
			return nil, err
		}
		return &File{inner: pack.RawFileFromInMemory(mf)}, nil
	default:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
}

// Create opens name for writing inside h's scope, honoring
// Policy == ThreadLocalBackpack the same way createUnderPolicy does.
func (h *Handle) Create(name string) (*File, error) {
	if h.cfg.Policy != ThreadLocalBackpack {
		return createUnderPolicy(name, h.cfg)
	}
	bp, err := h.backpack()
	if err != nil {
		return nil, err
	}
	mf, err := bp.AddEmptyFile(name)
	if err != nil {
		return nil, err
	}
	return &File{inner: pack.RawFileFromInMemory(mf)}, nil
}

// Open opens an existing name inside h's scope.
func (h *Handle) Open(name string) (*File, error) {
	if h.cfg.Policy != ThreadLocalBackpack {
		return openUnderPolicy(name, h.cfg)
	}
	bp, err := h.backpack()
	if err != nil {
		return nil, err
	}
	mf, err := bp.GetFile(name)
	if err != nil {
		return nil, err
	}
	return &File{inner: pack.RawFileFromInMemory(mf)}, nil
}

// Remove removes name from h's ambient backpack. For the OnDisk and
// InMemory policies it removes nothing and returns a *fs.PathError
// wrapping fs.ErrInvalid.
func (h *Handle) Remove(name string) error {
	if h.cfg.Policy != ThreadLocalBackpack {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrInvalid}
	}
	bp, err := h.backpack()
	if err != nil {
		return err
	}
	bp.RemoveFile(name)
	return nil
}

var errNeedsScope = &fs.PathError{Op: "open", Path: "", Err: fs.ErrInvalid}

func (f *File) Read(p []byte) (int, error)  { return f.inner.Read(p) }
func (f *File) Write(p []byte) (int, error) { return f.inner.Write(p) }
func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.inner.Seek(offset, whence)
}
func (f *File) Close() error               { return f.inner.Close() }
func (f *File) Sync() error                { return f.inner.SyncAll() }
func (f *File) SetLen(n int64) error       { return f.inner.SetLen(n) }
func (f *File) Name() (string, bool)       { return f.inner.Name() }
func (f *File) Metadata() (fs.FileInfo, error) { return f.inner.Metadata() }

// TryClone returns an independent handle sharing the same backing
// storage, exactly like *pack.RawFile.TryClone.
func (f *File) TryClone() (*File, error) {
	clone, err := f.inner.TryClone()
	if err != nil {
		return nil, err
	}
	return &File{inner: clone}, nil
}
