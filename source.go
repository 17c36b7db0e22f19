package speaker

import (
	"context"
	"errors"
	"io"
)

// FormatDeclarer is implemented by producers that know the PCM layout of the
// data they produce.
type FormatDeclarer interface {
	DeclaredFormat() FormatSpec
}

// FormatAnnouncer is implemented by producers that learn their format while
// streaming, e.g. after parsing a header. The speaker consumes at most one
// value from the channel per attachment.
type FormatAnnouncer interface {
	FormatAnnounced() <-chan FormatSpec
}

// Attach connects the speaker to an upstream producer. The declared format of
// src is merged immediately, and one later format announcement is awaited
// until Detach is called. Attaching replaces a previous attachment.
func (s *Speaker) Attach(src any) {
	s.Detach()

	if d, ok := src.(FormatDeclarer); ok {
		s.applyFormat(d.DeclaredFormat())
	}

	a, ok := src.(FormatAnnouncer)
	if !ok {
		return
	}

	ch := a.FormatAnnounced()
	if ch == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)

		select {
		case spec, ok := <-ch:
			if ok {
				s.log.Debug("format announced by upstream")
				s.applyFormat(spec)
			}
		case <-ctx.Done():
		}
	}()

	s.mu.Lock()
	s.detach = func() {
		cancel()
		<-done
	}
	s.mu.Unlock()
}

// Detach stops listening for format announcements of the attached producer.
// When it returns, no further announcement is merged.
func (s *Speaker) Detach() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// ReadFrom implements io.ReaderFrom. It attaches r, writes the data read from
// it until EOF and detaches again. Reads are buffered up to HighWaterMark
// bytes and written once at least LowWaterMark bytes are pending. Only whole
// frames are written before EOF; a partial frame waits for the next read.
// ReadFrom does not end the stream, see Play.
func (s *Speaker) ReadFrom(r io.Reader) (int64, error) {
	s.Attach(r)
	defer s.Detach()

	buf := make([]byte, s.highWaterMark)

	var total int64
	pending := 0

	for {
		n, err := r.Read(buf[pending:])
		pending += n

		if pending > 0 && (pending >= s.lowWaterMark || pending == len(buf) || err != nil) {
			size := pending
			if err == nil {
				size = alignDown(pending, s.Format().BlockAlign())
				if size == 0 && pending == len(buf) {
					size = pending
				}
			}

			if size > 0 {
				w, werr := s.Write(buf[:size])
				total += int64(w)
				pending = copy(buf, buf[size:pending])

				if werr != nil {
					return total, werr
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return total, nil
		}

		if err != nil {
			return total, err
		}
	}
}

// alignDown rounds n down to a multiple of align.
func alignDown(n, align int) int {
	if align <= 0 {
		return n
	}

	return n - n%align
}

// Play writes everything read from r, then ends the stream, waiting for the
// device to play the buffered audio. Cancelling ctx stops the speaker at the
// next chunk boundary and returns ctx.Err().
func (s *Speaker) Play(ctx context.Context, r io.Reader) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.Stop()
	})
	defer stop()

	if _, err := s.ReadFrom(r); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.End()
}
