//go:build !unix

package region

import "errors"

// mapAnon is unavailable without mmap; New falls back to the heap.
func mapAnon(size int) ([]byte, func() error, error) {
	return nil, nil, errors.New("region: anonymous mappings not supported")
}
