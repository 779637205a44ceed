package base

// Option represents option
type Option func(s *Session)

func WithFramer(framer FrameMessage) Option {
	return func(s *Session) {
		s.framer = framer
	}
}

// WithEventBuffer sets the number of framed events retained for SSE
// resumability (Last-Event-ID replay). Zero disables buffering.
func WithEventBuffer(size int) Option {
	return func(s *Session) {
		s.bufferSize = size
	}
}

// WithSSE marks the session's writer as carrying SSE framing, which
// injects an "id: N" line ahead of every frame so clients can resume via
// Last-Event-ID.
func WithSSE() Option {
	return func(s *Session) {
		s.sse = true
	}
}

// WithOverflowPolicy sets the behavior when the event buffer exceeds its
// configured size.
func WithOverflowPolicy(p OverflowPolicy) Option {
	return func(s *Session) {
		s.overflowPolicy = p
	}
}
