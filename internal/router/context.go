package router

// Context is the shared key-value space a run's steps read from and write
// to. Later writes overwrite earlier ones; the router is single-threaded
// per run, so no locking is needed.
type Context struct {
	values map[string]any
}

func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Snapshot returns a shallow copy of the current context values.
func (c *Context) Snapshot() map[string]any {
	snap := make(map[string]any, len(c.values))
	for k, v := range c.values {
		snap[k] = v
	}
	return snap
}
