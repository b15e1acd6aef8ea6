package graph

import "fmt"

type (
	// GraphLock is a proof that the caller holds the context's graph lock.
	// Structural mutations require it: connect, disconnect, enable and
	// disable. It's obtained with Context.LockGraph or
	// Context.WithGraphLock and becomes invalid after Unlock.
	GraphLock struct {
		ctx  *Context
		held bool
	}

	// RenderLock is a proof that the caller is the render goroutine of the
	// context. Pulls, bus access and frozen counters require it.
	RenderLock struct {
		ctx  *Context
		held bool
	}

	// Boundary is handed out by the context between two render quanta,
	// when the render goroutine holds both locks. Only at this point
	// channel counts change and rendering snapshots are refreshed.
	Boundary struct {
		graph  *GraphLock
		render *RenderLock
	}
)

// LockGraph acquires the graph lock. It must be released with Unlock.
func (c *Context) LockGraph() *GraphLock {
	c.graphMu.Lock()
	return &GraphLock{ctx: c, held: true}
}

// WithGraphLock calls fn while holding the graph lock.
func (c *Context) WithGraphLock(fn func(g *GraphLock) error) error {
	g := c.LockGraph()
	defer g.Unlock()
	return fn(g)
}

// Unlock releases the graph lock.
func (g *GraphLock) Unlock() {
	g.check(g.ctx)
	g.held = false
	g.ctx.graphMu.Unlock()
}

// Context returns the context that issued the lock.
func (g *GraphLock) Context() *Context {
	return g.ctx
}

// LockRender acquires the render lock. Context.Render does it on its own,
// custom schedulers use it to pull nodes directly.
func (c *Context) LockRender() *RenderLock {
	c.renderMu.Lock()
	return &RenderLock{ctx: c, held: true}
}

// Unlock releases the render lock.
func (r *RenderLock) Unlock() {
	r.check(r.ctx)
	r.held = false
	r.ctx.renderMu.Unlock()
}

// Context returns the context that issued the lock.
func (r *RenderLock) Context() *Context {
	return r.ctx
}

// Graph returns the graph lock held during boundary.
func (b *Boundary) Graph() *GraphLock {
	return b.graph
}

// Render returns the render lock held during boundary.
func (b *Boundary) Render() *RenderLock {
	return b.render
}

func (g *GraphLock) check(c *Context) {
	if g == nil || !g.held || g.ctx != c {
		panic(fmt.Errorf("graph lock: %w", ErrInvalidState))
	}
}

func (r *RenderLock) check(c *Context) {
	if r == nil || !r.held || r.ctx != c {
		panic(fmt.Errorf("render lock: %w", ErrInvalidState))
	}
}

func (b *Boundary) check(c *Context) {
	if b == nil {
		panic(fmt.Errorf("boundary: %w", ErrInvalidState))
	}
	b.graph.check(c)
	b.render.check(c)
}
