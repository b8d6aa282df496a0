package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/migadu/sievecore/consts"
)

// LoadOptions controls how Load obtains its backing buffer.
type LoadOptions struct {
	// PreferMmap requests a read-only mmap over an *os.File when
	// possible (§4.3: "Map the file read-only"). Ignored for readers
	// that aren't an *os.File; always falls back to a copy on error.
	PreferMmap bool
}

// Load verifies the version header and returns a bounds-checked
// read-only buffer. r may be an *os.File (to enable mmap) or any
// io.ReaderAt.
func Load(r io.ReaderAt, size int64, opts LoadOptions) (*Bytecode, error) {
	var raw []byte
	var path string

	if f, ok := r.(*os.File); ok {
		path = f.Name()
		if opts.PreferMmap {
			if mapped, err := mmapFile(f, size); err == nil {
				raw = mapped
			}
		}
	}
	if raw == nil {
		buf := make([]byte, size)
		if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %v", consts.ErrBytecodeMalformed, err)
		}
		raw = buf
	}

	if len(raw) < headerBytes {
		return nil, fmt.Errorf("%w: truncated header", consts.ErrBytecodeMalformed)
	}
	version := binary.NativeEndian.Uint32(raw[:headerBytes])
	if version != consts.BytecodeVersion {
		return nil, fmt.Errorf("%w: have %d want %d", consts.ErrBytecodeVersion, version, consts.BytecodeVersion)
	}
	if (len(raw)-headerBytes)%cellBytes != 0 {
		return nil, fmt.Errorf("%w: body length %d is not cell-aligned", consts.ErrBytecodeMalformed, len(raw)-headerBytes)
	}
	return &Bytecode{raw: raw, version: version, path: path}, nil
}

// LoadFile opens path and loads it, preferring mmap.
func LoadFile(path string) (*Bytecode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", consts.ErrBytecodeMalformed, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", consts.ErrBytecodeMalformed, err)
	}
	return Load(f, st.Size(), LoadOptions{PreferMmap: true})
}

// IncludeCache loads and caches bytecode buffers keyed by inode
// (falling back to absolute path on platforms/filesystems where an
// inode number isn't available), so that a script included from
// several places shares one mapped buffer (§4.3).
type IncludeCache struct {
	mu      sync.Mutex
	byKey   map[string]*Bytecode
}

// NewIncludeCache returns an empty cache.
func NewIncludeCache() *IncludeCache {
	return &IncludeCache{byKey: make(map[string]*Bytecode)}
}

// Load returns the cached buffer for path, loading and caching it on
// first use.
func (ic *IncludeCache) Load(path string) (*Bytecode, error) {
	key, err := cacheKey(path)
	if err != nil {
		return nil, err
	}

	ic.mu.Lock()
	if bc, ok := ic.byKey[key]; ok {
		ic.mu.Unlock()
		return bc, nil
	}
	ic.mu.Unlock()

	bc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()
	if existing, ok := ic.byKey[key]; ok {
		return existing, nil
	}
	ic.byKey[key] = bc
	return bc, nil
}
