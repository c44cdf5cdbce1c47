//go:build !linux && !darwin

package keyfile

import "os"

// reserve sizes f to exactly size bytes. Blocks may be allocated lazily.
func reserve(f *os.File, size int64) error {
	return f.Truncate(size)
}
