// Package mmap acquires byte-backed regions from files.
//
// OpenBacking implements the backing-buffer lifecycle: open read-write
// (creating if needed, owner-only mode), truncate to the requested size,
// map shared read-write, and close the descriptor. The mapping outlives
// the descriptor; unmapping at teardown is the caller's job via Close.
package mmap

import (
	"fmt"
	"os"
)

// Region is a byte region mapped from a file. Writes to Data land in the
// shared mapping and reach the file under the OS's consistency rules.
type Region struct {
	Data []byte
}

// OpenBacking opens or creates the file at path, truncates it to size
// bytes and maps it shared read-write.
func OpenBacking(path string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("mmap: invalid region size %d", size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("mmap: open: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: truncate: %w", err)
	}

	data, err := mapFile(f, size)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: map: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = unmap(data)
		return nil, fmt.Errorf("mmap: close: %w", err)
	}
	return &Region{Data: data}, nil
}

// Sync flushes modified pages of the mapping to the backing file.
func (r *Region) Sync() error {
	if r.Data == nil {
		return nil
	}
	if err := sync(r.Data); err != nil {
		return fmt.Errorf("mmap: sync: %w", err)
	}
	return nil
}

// Close unmaps the region. The Region must not be used afterwards.
func (r *Region) Close() error {
	if r.Data == nil {
		return nil
	}
	data := r.Data
	r.Data = nil
	if err := unmap(data); err != nil {
		return fmt.Errorf("mmap: unmap: %w", err)
	}
	return nil
}
