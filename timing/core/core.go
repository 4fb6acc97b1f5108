// Package core provides a high-level, source-to-completion interface over
// the Tomasulo engine: assemble a program, build an engine from a
// configuration, and run it to a halt or a cycle cap.
package core

import (
	"github.com/Farahemad1/tomasulosim/asm"
	"github.com/Farahemad1/tomasulosim/simerr"
	"github.com/Farahemad1/tomasulosim/timing/cache"
	"github.com/Farahemad1/tomasulosim/timing/config"
	"github.com/Farahemad1/tomasulosim/timing/engine"
)

// Stats holds run-level statistics: cycle count and cache hit/miss/eviction
// counters.
type Stats struct {
	Cycles uint64
	Cache  cache.Stats
}

// Core wraps an Engine with source-level construction and a simple
// run-to-completion interface.
type Core struct {
	Engine *engine.Engine
}

// NewCore assembles source and builds a Core running under cfg. Returns a
// BadProgram error if source fails to assemble, or a BadConfig error if cfg
// is invalid.
func NewCore(source string, cfg config.Config) (*Core, error) {
	program, err := asm.Parse(source)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(program, cfg)
	if err != nil {
		return nil, err
	}
	return &Core{Engine: e}, nil
}

// Halted reports whether the engine has run to completion.
func (c *Core) Halted() bool {
	return c.Engine.Halted()
}

// Tick advances the engine by exactly one cycle, ignoring a NoProgress
// error so a caller can tick freely without special-casing empty cycles.
func (c *Core) Tick() error {
	if err := c.Engine.NextCycle(); err != nil && !simerr.Is(err, simerr.NoProgress) {
		return err
	}
	return nil
}

// Stats returns the current cycle count and cache counters.
func (c *Core) Stats() Stats {
	return Stats{
		Cycles: uint64(c.Engine.Cycle()),
		Cache:  c.Engine.CacheStats(),
	}
}

// Run executes the core until it halts or maxCycles is reached.
func (c *Core) Run(maxCycles int) error {
	return c.Engine.Run(maxCycles)
}
