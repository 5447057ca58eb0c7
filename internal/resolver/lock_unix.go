//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package resolver

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// checkLock reports ErrLocked when another holder has an exclusive lock on
// the file. The test lock is released before returning.
func checkLock(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := unix.Flock(fd, unix.LOCK_SH|unix.LOCK_NB); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("%w: %s", ErrLocked, path)
		}
		// File systems without flock support; leave the verdict to the opener.
		return nil
	}
	_ = unix.Flock(fd, unix.LOCK_UN)
	return nil
}

func isLockErrno(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) ||
		errors.Is(err, unix.EBUSY) ||
		errors.Is(err, unix.ETXTBSY)
}
