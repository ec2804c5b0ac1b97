//go:build unix

package mmapfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type posixMappedFile struct {
	f    *os.File
	data []byte
	size int64
}

// Open maps path read-only. A zero-length file returns a valid handle
// with an empty span (mmap of a zero-length region is refused by the
// kernel, so that case is special-cased rather than attempted).
func Open(path string) (MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat failed: %w", err)
	}

	size := info.Size()
	if size == 0 {
		return &posixMappedFile{f: f, data: nil, size: 0}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap failed: %w", err)
	}

	return &posixMappedFile{f: f, data: data, size: size}, nil
}

func (m *posixMappedFile) Bytes() []byte { return m.data }
func (m *posixMappedFile) Size() int64   { return m.size }

func (m *posixMappedFile) Close() error {
	var unmapErr error
	if m.data != nil {
		unmapErr = unix.Munmap(m.data)
		m.data = nil
	}
	closeErr := m.f.Close()
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}
