// Package filex holds small file-system helpers.
package filex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// EnsureDir creates dir on fs when it is missing and returns its absolute
// path. Relative paths are resolved against the working directory.
func EnsureDir(fs afero.Fs, dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	fi, err := fs.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}

	return dir, nil
}
