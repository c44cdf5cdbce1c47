//go:build darwin

package keyfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// reserve sizes f to exactly size bytes, preallocating with F_PREALLOCATE
// when the filesystem supports it.
func reserve(f *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	// Preallocation is best-effort; Ftruncate alone still sets the size.
	_ = unix.FcntlFstore(f.Fd(), unix.F_PREALLOCATE, &fst)
	return unix.Ftruncate(int(f.Fd()), size)
}
