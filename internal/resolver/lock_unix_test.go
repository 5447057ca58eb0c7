//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package resolver

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestResolveLockedFile(t *testing.T) {
	f := newFixture(t)
	path := f.touch(t, "Foo.dll")

	holder, err := os.Open(path)
	require.NoError(t, err)
	defer holder.Close()
	require.NoError(t, unix.Flock(int(holder.Fd()), unix.LOCK_EX|unix.LOCK_NB))

	_, ok := f.r.Resolve("Foo")

	assert.False(t, ok)
	assert.Empty(t, f.opener.opened)
	require.Equal(t, 1, f.notifier.count())
	assert.Contains(t, f.notifier.messages[0], "in use")
	assert.Equal(t, 1.0, f.lookups(FailureLocked.String()))
}

func TestClassifyErrno(t *testing.T) {
	assert.Equal(t, FailureLocked, Classify(unix.ETXTBSY))
	assert.Equal(t, FailureAccessDenied, Classify(unix.EACCES))
	assert.Equal(t, FailureOther, Classify(unix.ENOEXEC))
}
