//go:build !unix

package scanner

import (
	"errors"
	"os"
)

func lockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, os.ErrExist) {
		return nil, errLocked
	}
	return f, err
}

func unlockFile(f *os.File) error {
	_ = f.Close()

	err := os.Remove(f.Name())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
