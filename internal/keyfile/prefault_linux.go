//go:build linux

package keyfile

import "golang.org/x/sys/unix"

// madvPopulateWrite is MADV_POPULATE_WRITE (Linux 5.14+).
const madvPopulateWrite = 23

// populate faults in the whole writable mapping up front instead of one page
// at a time during encoding. Older kernels return EINVAL, which is ignored.
func populate(region []byte) {
	if len(region) == 0 {
		return
	}
	_ = unix.Madvise(region, madvPopulateWrite)
}
