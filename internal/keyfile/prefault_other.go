//go:build !linux

package keyfile

// populate is a no-op without MADV_POPULATE_WRITE.
func populate(region []byte) {}
