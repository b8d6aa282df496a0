package bytecode

import (
	"fmt"
	"path/filepath"
)

func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("abs path %s: %w", path, err)
	}
	return abs, nil
}
