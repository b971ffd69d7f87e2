package protocol

// MaxBufferSize bounds the bytes kept while looking for a frame.
const MaxBufferSize = 256

// Scanner extracts response frames from a byte stream.
// Frames may be split across reads; bytes are fed one at a time.
type Scanner struct {
	buf     []byte
	started bool
}

// Reset discards all accumulated bytes.
func (s *Scanner) Reset() {
	s.buf = s.buf[:0]
	s.started = false
}

// Buffered returns the number of accumulated bytes.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// Scan consumes one byte. It returns the frame completed by this byte,
// or an error wrapping ErrMalformedFrame if the completed frame can't be
// decoded. In both cases the accumulated bytes are discarded.
func (s *Scanner) Scan(b byte) (*Frame, error) {
	s.buf = append(s.buf, b)
	n := len(s.buf)
	if n < 2 {
		return nil, nil
	}
	prev := s.buf[n-2]
	if prev == HeaderByte0 && b == HeaderByte1 {
		// the latest start marker wins, anything before is noise.
		s.buf = append(s.buf[:0], HeaderByte0, HeaderByte1)
		s.started = true
		return nil, nil
	}
	if !s.started {
		if n >= MaxBufferSize {
			// keep the last byte, it may be the first half of a marker.
			s.buf[0] = b
			s.buf = s.buf[:1]
		}
		return nil, nil
	}
	if prev != TrailerByte0 || b != TrailerByte1 {
		if n > MaxBufferSize {
			s.Reset()
			return nil, ErrMalformedFrame
		}
		return nil, nil
	}
	frame, err := decodeFrame(s.buf[2 : n-2])
	if err == errIncomplete {
		// the end marker is part of the payload, keep going.
		return nil, nil
	}
	s.Reset()
	return frame, err
}

// Feed scans all bytes in p, calling fn for each completed frame.
// Malformed frames are reported to onErr when it's not nil.
func (s *Scanner) Feed(p []byte, fn func(*Frame), onErr func(error)) {
	for _, b := range p {
		frame, err := s.Scan(b)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			continue
		}
		if frame != nil {
			fn(frame)
		}
	}
}
