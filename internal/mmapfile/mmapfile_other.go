//go:build !unix

package mmapfile

import "errors"

// Open always fails on non-unix platforms; the engine treats this as an
// ordinary map-failed error and falls back to the streaming reader.
func Open(path string) (MappedFile, error) {
	return nil, errors.New("mmap not supported on this platform")
}
