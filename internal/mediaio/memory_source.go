package mediaio

import "sync"

// MemorySource is a deterministic, in-memory Source used by tests: it
// replays a fixed sequence of frames and then EndOfStream, optionally
// reporting a fixed duration.
type MemorySource struct {
	mu       sync.Mutex
	frames   []Frame
	pos      int
	duration float64
	hasDur   bool
	closed   bool
}

// NewMemorySource builds a MemorySource that yields frames in order, then
// EndOfStream forever. If hasDuration is false, Duration reports unknown.
func NewMemorySource(frames []Frame, durationSeconds float64, hasDuration bool) *MemorySource {
	return &MemorySource{
		frames:   frames,
		duration: durationSeconds,
		hasDur:   hasDuration,
	}
}

// Duration implements Source.
func (s *MemorySource) Duration() (float64, bool) {
	return s.duration, s.hasDur
}

// NextFrame implements Source.
func (s *MemorySource) NextFrame() (DecodeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.frames) {
		return DecodeResult{Kind: DecodeEndOfStream}, nil
	}
	frame := s.frames[s.pos]
	s.pos++
	return DecodeResult{Kind: DecodeFrame, Frame: frame}, nil
}

// Close implements Source.
func (s *MemorySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called, for tests.
func (s *MemorySource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// NewSequentialFrames builds n single-stream (stream_index=0) frames with
// ascending, otherwise meaningless payloads, for progress-reporting tests.
func NewSequentialFrames(n int) []Frame {
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Frame{StreamIndex: 0, Data: []byte{byte(i)}, PTS: int64(i)}
	}
	return frames
}
