//go:build !linux

package keyfile

// adviseSequential is a no-op where posix_fadvise is unavailable.
func adviseSequential(fd uintptr, size int64) {}
