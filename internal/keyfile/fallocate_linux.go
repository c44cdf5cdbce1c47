//go:build linux

package keyfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// reserve sizes f to exactly size bytes with its blocks allocated, so writes
// through the mapping cannot hit SIGBUS on a full disk.
func reserve(f *os.File, size int64) error {
	fd := int(f.Fd())
	if err := unix.Fallocate(fd, 0, 0, size); err != nil {
		// Some filesystems (tmpfs on old kernels, NFS) refuse fallocate.
		return unix.Ftruncate(fd, size)
	}
	return unix.Ftruncate(fd, size)
}
