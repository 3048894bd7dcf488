package livestore

// Option configures a container on creation.
// Return an error to reject an invalid option value.
type Option func(*config) error

type config struct {
	store     Store
	transport Transport
	codec     Codec
}

func defaultConfig() config {
	return config{codec: JSONCodec{}}
}

// WithCapabilities installs every collaborator of the descriptor at once.
// Nil fields leave the corresponding collaborator unavailable.
func WithCapabilities(caps Capabilities) Option {
	return func(c *config) error {
		c.store = caps.Store
		c.transport = caps.Transport
		return nil
	}
}

// WithStore sets the persistent store. A nil store disables persistence.
func WithStore(store Store) Option {
	return func(c *config) error {
		c.store = store
		return nil
	}
}

// WithTransport sets the broadcast transport. A nil transport disables
// cross-context synchronization.
func WithTransport(transport Transport) Option {
	return func(c *config) error {
		c.transport = transport
		return nil
	}
}

// WithCodec sets the codec used for persisted values and wire messages.
// Defaults to JSONCodec.
func WithCodec(codec Codec) Option {
	return func(c *config) error {
		if codec == nil {
			return ErrNilCodec
		}
		c.codec = codec
		return nil
	}
}
