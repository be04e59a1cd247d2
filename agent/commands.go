package agent

// Commands buffers requests made by observers during a turn. They are
// applied by the Driver after every observer has run, so no observer sees
// the session change under it.
type Commands struct {
	defers []func()
	reset  bool
	stop   bool
}

func newCommands() *Commands {
	return &Commands{}
}

// Defer queues a function to run when the turn is flushed.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Reset asks the driver to start a new episode after this turn.
func (c *Commands) Reset() {
	c.reset = true
}

// Stop asks the driver to return after this turn.
func (c *Commands) Stop() {
	c.stop = true
}

// flush runs deferred functions in order and reports the requested control
// flow, reseting the buffer state.
func (c *Commands) flush() (reset, stop bool) {
	for _, fn := range c.defers {
		fn()
	}
	reset, stop = c.reset, c.stop

	clear(c.defers)
	c.defers = c.defers[:0]
	c.reset, c.stop = false, false
	return reset, stop
}
