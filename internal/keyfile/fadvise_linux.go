//go:build linux

package keyfile

import "golang.org/x/sys/unix"

// adviseSequential tells the kernel the whole key file is about to be read
// front to back, so readahead can run ahead of the decode loop.
// Errors are ignored: the hint only affects speed.
func adviseSequential(fd uintptr, size int64) {
	_ = unix.Fadvise(int(fd), 0, size, unix.FADV_SEQUENTIAL)
}
