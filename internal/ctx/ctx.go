// Package ctx holds the per-compilation mutable state that spec.md's
// design notes (section 9) call out as "global mutable counters" in the
// original source: the fresh-name counters for identifier resolution,
// temporaries and the IR generator's per-family labels. Threading one of
// these through every pass (instead of process-wide statics) keeps
// compilations independent, which matters for tests and for a driver that
// compiles more than one file in a process.
package ctx

import "fmt"

// Context carries every counter a compilation's passes need to generate
// fresh, collision-free names. Identifier resolution advances identCounter; the IR
// generator continues from wherever identifier resolution left off so
// that `tmp.<k>` names can never collide with `<src>.<k>` resolved names.
type Context struct {
	identCounter  int
	tempCounter   int
	labelCounters map[string]int
}

// New creates an empty per-compilation context.
func New() *Context {
	return &Context{labelCounters: make(map[string]int)}
}

// FreshIdent returns a globally unique name of the form "<src>.<counter>"
// for identifier resolution (spec.md section 4.1.1).
func (c *Context) FreshIdent(src string) string {
	c.identCounter++
	return fmt.Sprintf("%s.%d", src, c.identCounter)
}

// SeedTempCounter starts the temporary counter from the identifier
// counter identifier resolution left behind, per spec.md section 4.2
// ("tmp.<k> starting from the counter inherited from identifier
// resolution"). Without this, tempCounter starts at 0 independently and
// a user variable named e.g. "tmp" (resolved to "tmp.1") can collide
// with the IR generator's first compiler temp, which would also be
// named "tmp.1".
func (c *Context) SeedTempCounter() {
	if c.identCounter > c.tempCounter {
		c.tempCounter = c.identCounter
	}
}

// FreshTemp returns a new "tmp.<k>" name (spec.md section 4.2).
func (c *Context) FreshTemp() string {
	c.tempCounter++
	return fmt.Sprintf("tmp.%d", c.tempCounter)
}

// FreshLabel returns a new "<family><k>" name, one independent counter per
// family (spec.md section 4.2: and_false, or_true, result, end, else, e2,
// start, loop each count separately).
func (c *Context) FreshLabel(family string) string {
	c.labelCounters[family]++
	return fmt.Sprintf("%s%d", family, c.labelCounters[family])
}
