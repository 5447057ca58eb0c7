//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package resolver

import "os"

// checkLock only checks that the file can be opened; lock detection is
// left to the opener on this platform.
func checkLock(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func isLockErrno(error) bool {
	return false
}
