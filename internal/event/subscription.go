package event

// Subscription represents one registered handler on the bus.
// It is returned by Subscribe and passed to Unsubscribe.
type Subscription struct {
	id       string
	name     Name
	handler  Handler
	once     bool
	external bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Name returns the event name the subscription is registered for.
func (s *Subscription) Name() Name {
	return s.name
}

// IsOnce reports whether the subscription auto-removes after one dispatch.
func (s *Subscription) IsOnce() bool {
	return s.once
}

// IsExternal reports whether the subscription is deferred behind internal
// handlers during dispatch.
func (s *Subscription) IsExternal() bool {
	return s.external
}

// subscribeConfig contains configuration for a subscription.
type subscribeConfig struct {
	once     bool
	external bool
}

// defaultSubscribeConfig returns the default subscription configuration.
func defaultSubscribeConfig() subscribeConfig {
	return subscribeConfig{}
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

// WithOnce makes the subscription fire at most once. It is deregistered
// before its first invocation.
func WithOnce() SubscribeOption {
	return func(c *subscribeConfig) {
		c.once = true
	}
}

// WithExternal marks the handler as an external consumer. External handlers
// run after every internal handler for the same dispatch.
func WithExternal() SubscribeOption {
	return func(c *subscribeConfig) {
		c.external = true
	}
}
