//go:build unix

package mapmem

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/kernelkit/internal/layout"
)

// Map reserves an anonymous, zero-filled region of at least size bytes and
// returns it along with a release function. The mapping is private to the
// process; nothing is backed by a file.
func Map(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mapmem: invalid region size %d", size)
	}
	mapped := layout.AlignPage(size)
	data, err := unix.Mmap(-1, 0, mapped,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, nil, fmt.Errorf("mapmem: mmap %d bytes: %w", mapped, err)
	}
	release := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data[:size], release, nil
}
