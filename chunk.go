package speaker

// chunkFunc writes one chunk. canceled reports that the chunk was not sent
// because the sink was closed.
type chunkFunc func(b []byte) (n int, canceled bool, err error)

// chunker splits writes into pieces of at most size bytes.
// Chunks are sent to the backend in "samplesPerFrame * blockAlign" size,
// too big chunks leave the backend without data when its audio callback runs.
type chunker struct {
	size int
}

// forward sends p in order through write, one chunk at a time. The next chunk
// is sent only after the previous one was consumed completely.
//
// A mismatched byte count stops forwarding with a WriteMismatchError.
// Cancellation stops forwarding and reports the whole of p as written.
func (c chunker) forward(p []byte, write chunkFunc) (int, error) {
	size := c.size
	if size <= 0 {
		size = len(p)
	}

	written := 0
	for left := p; len(left) > 0; {
		b := left
		if len(b) > size {
			b = left[:size]
		}
		left = left[len(b):]

		n, canceled, err := write(b)
		if canceled {
			return len(p), nil
		}

		if err != nil {
			return written + clamp(n, len(b)), err
		}

		if n != len(b) {
			return written + clamp(n, len(b)), &WriteMismatchError{Requested: len(b), Written: n}
		}

		written += n
	}

	return written, nil
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}

	return n
}
