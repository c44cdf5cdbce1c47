// Package keyfile reads and writes the binary key files the bench tool uses
// as build input.
//
// Layout (little-endian):
//
//	Offset      Size     Field
//	0           4        Magic    "FXKS"
//	4           2        Version  0x0001
//	6           2        Reserved (zero)
//	8           8        Count    uint64
//	16          8*Count  Keys     int64 each
//	16+8*Count  8        Checksum xxHash64 of the key region
package keyfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	fserrors "github.com/dvpolyakov/fixedset/errors"
)

const (
	// magic is "FXKS" in little-endian byte order.
	magic = uint32(0x534B5846)

	version = uint16(0x0001)

	headerSize = 16
	footerSize = 8
	keySize    = 8
)

// header is the fixed 16-byte file header.
type header struct {
	Magic   uint32
	Version uint16
	Count   uint64
}

func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], 0)
	binary.LittleEndian.PutUint64(buf[8:16], h.Count)
}

func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, fserrors.ErrTruncatedFile
	}
	h := &header{
		Magic:   binary.LittleEndian.Uint32(buf[0:4]),
		Version: binary.LittleEndian.Uint16(buf[4:6]),
		Count:   binary.LittleEndian.Uint64(buf[8:16]),
	}
	if h.Magic != magic {
		return nil, fserrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, fserrors.ErrInvalidVersion
	}
	return h, nil
}

// FileSize returns the encoded size of a file holding n keys.
func FileSize(n int) int64 {
	return headerSize + int64(n)*keySize + footerSize
}

// Write stores keys at path, replacing any existing file.
// The file is preallocated and written through a shared mapping.
func Write(path string, keys []int64) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, f.Close(), os.Remove(path))
		}
	}()

	size := FileSize(len(keys))
	if err := reserve(f, size); err != nil {
		return fmt.Errorf("reserve key file: %w", err)
	}

	mm, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("mmap key file: %w", err)
	}
	populate(mm)
	encodeInto(mm, keys)

	if err := mm.Flush(); err != nil {
		return errors.Join(fmt.Errorf("flush key file: %w", err), mm.Unmap())
	}
	if err := mm.Unmap(); err != nil {
		return fmt.Errorf("unmap key file: %w", err)
	}
	return f.Close()
}

// Encode returns keys in key file format.
func Encode(keys []int64) []byte {
	buf := make([]byte, FileSize(len(keys)))
	encodeInto(buf, keys)
	return buf
}

// encodeInto writes the full file image into dst, which must be exactly
// FileSize(len(keys)) bytes.
func encodeInto(dst []byte, keys []int64) {
	h := header{Magic: magic, Version: version, Count: uint64(len(keys))}
	h.encodeTo(dst[:headerSize])

	region := dst[headerSize : headerSize+len(keys)*keySize]
	for i, k := range keys {
		binary.LittleEndian.PutUint64(region[i*keySize:], uint64(k))
	}
	binary.LittleEndian.PutUint64(dst[len(dst)-footerSize:], xxhash.Sum64(region))
}

// Load reads all keys from the file at path, verifying size and checksum.
func Load(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat key file: %w", err)
	}
	if stat.Size() < headerSize+footerSize {
		return nil, fserrors.ErrTruncatedFile
	}
	adviseSequential(f.Fd(), stat.Size())

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap key file: %w", err)
	}
	keys, err := Decode(mm)
	return keys, errors.Join(err, mm.Unmap())
}

// Decode parses a key file image. The returned keys do not alias data.
func Decode(data []byte) ([]int64, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}

	avail := uint64(len(data)) - headerSize
	if avail < footerSize || h.Count > (avail-footerSize)/keySize {
		return nil, fmt.Errorf("%w: header declares %d keys in %d bytes",
			fserrors.ErrTruncatedFile, h.Count, len(data))
	}
	if want := uint64(FileSize(int(h.Count))); uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: size %d, want %d",
			fserrors.ErrCorruptedFile, len(data), want)
	}

	region := data[headerSize : len(data)-footerSize]
	if xxhash.Sum64(region) != binary.LittleEndian.Uint64(data[len(data)-footerSize:]) {
		return nil, fserrors.ErrChecksumFailed
	}

	keys := make([]int64, h.Count)
	for i := range keys {
		keys[i] = int64(binary.LittleEndian.Uint64(region[i*keySize:]))
	}
	return keys, nil
}
