package buf

import "unsafe"

// unsafeBytes exposes a []uint64 as bytes so tests get a guaranteed 8-byte aligned buffer.
func unsafeBytes(words []uint64) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(words)*8)
}
