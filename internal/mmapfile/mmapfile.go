// Package mmapfile implements the read-only memory-mapped file provider
// (spec.md C6). A MappedFile exclusively owns its descriptor and mapped
// address range; Bytes() is a borrow valid only for the handle's
// lifetime, and callers that need to retain data past Close must copy it
// out first (spec.md "Design Notes": snippets are materialized before
// the handle is dropped).
package mmapfile

// MappedFile exposes a read-only view of an entire file's bytes.
type MappedFile interface {
	Bytes() []byte
	Size() int64
	Close() error
}
