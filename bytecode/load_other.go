//go:build !unix

package bytecode

import (
	"fmt"
	"os"
)

// mmapFile has no portable implementation outside unix; Load always
// falls back to a copied buffer on these platforms.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	return nil, fmt.Errorf("mmap: unsupported on this platform")
}

// cacheKey falls back to the absolute path as the cache key, since no
// inode number is available.
func cacheKey(path string) (string, error) {
	return absPath(path)
}
