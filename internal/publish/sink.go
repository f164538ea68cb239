package publish

// Sink receives every pose message.
type Sink interface {
	Publish(msg PoseMessage) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg PoseMessage) error

// Publish calls f.
func (f SinkFunc) Publish(msg PoseMessage) error {
	return f(msg)
}

// Multi fans a message out to several sinks. Every sink is tried; the
// first error is returned.
type Multi []Sink

// Publish sends msg to every sink.
func (m Multi) Publish(msg PoseMessage) error {
	var first error
	for _, s := range m {
		if err := s.Publish(msg); err != nil && first == nil {
			first = err
		}
	}
	return first
}
