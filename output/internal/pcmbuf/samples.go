package pcmbuf

import "unsafe"

// Sample is a fixed size sample type handed out by audio callbacks.
type Sample interface {
	~int8 | ~uint8 | ~int16 | ~int32 | ~float32
}

// Bytes returns the memory of s as a byte slice in host byte order.
func Bytes[T Sample](s []T) []byte {
	if len(s) == 0 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(s[0])))
}
