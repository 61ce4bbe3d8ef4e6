package testutil

import (
	"github.com/hupe1980/addonbridge/host/memhost"
)

// Overworld is the id of the dimension every test host starts with.
const Overworld = "minecraft:overworld"

// Host bundles the in-memory host primitives.
type Host struct {
	World     *memhost.World
	Scheduler *memhost.Scheduler
	Bus       *memhost.Bus
}

// NewHost creates a host with the overworld and a couple of block types.
func NewHost(optFns ...func(o *memhost.WorldOptions)) *Host {
	w := memhost.NewWorld(optFns...)
	w.AddDimension(Overworld)
	w.RegisterBlockType("minecraft:wool", map[string][]any{"color": {"white", "red", "blue"}})
	w.RegisterBlockType("minecraft:wheat", map[string][]any{"growth": {0, 1, 2, 3, 4, 5, 6, 7}})

	return &Host{
		World:     w,
		Scheduler: memhost.NewScheduler(),
		Bus:       memhost.NewBus(),
	}
}

// Run advances the scheduler n ticks.
func (h *Host) Run(n int) { h.Scheduler.Run(n) }
