//go:build unix

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile takes an exclusive flock on path, creating it if needed, and
// returns the release func. Blocks while another holder has it.
func lockFile(path string) (func(), error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(fh.Fd()), unix.LOCK_EX); err != nil {
		_ = fh.Close()
		return nil, err
	}
	return func() {
		_ = unix.Flock(int(fh.Fd()), unix.LOCK_UN)
		_ = fh.Close()
	}, nil
}
