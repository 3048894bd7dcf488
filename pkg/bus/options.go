package bus

import "errors"

// ErrClosed is returned by Send on a closed channel.
var ErrClosed = errors.New("bus: channel is closed")

// Option configures a transport.
type Option func(*settings)

type settings struct {
	onError func(error)
}

func newSettings(opts []Option) settings {
	s := settings{onError: func(error) {}}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// WithErrorHandler sets a callback for errors returned by message handlers or
// raised while decoding inbound frames. It is called from delivery goroutines
// and must be safe for concurrent use. A nil handler discards errors.
func WithErrorHandler(handler func(error)) Option {
	return func(s *settings) {
		if handler == nil {
			handler = func(error) {}
		}
		s.onError = handler
	}
}
