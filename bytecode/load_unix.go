//go:build unix

package bytecode

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// mmapFile maps f read-only. Callers fall back to a copy on any error,
// including on platforms where mmap of zero-length files is rejected.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("mmap: empty file")
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return data, nil
}

// cacheKey prefers the device+inode pair so hardlinked or
// bind-mounted copies of the same script share one cache entry.
func cacheKey(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if sys, ok := st.Sys().(*syscall.Stat_t); ok {
		return fmt.Sprintf("%d:%d", sys.Dev, sys.Ino), nil
	}
	abs, err := absPath(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}
