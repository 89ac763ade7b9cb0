package kern

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/joshuapare/kernelkit/drivers/keyboard"
	"github.com/joshuapare/kernelkit/mem/heap"
	"github.com/joshuapare/kernelkit/mem/tlb"
	"github.com/joshuapare/kernelkit/sched"
)

// Stats aggregates the subsystem counters in one snapshot. Each field
// is snapshotted independently; the composite is not a single atomic
// cut across subsystems.
type Stats struct {
	Heap     heap.Stats
	Executor sched.Stats
	TLB      tlb.Stats
	Keyboard keyboard.Stats
}

// Stats snapshots every subsystem.
func (k *Kernel) Stats() Stats {
	return Stats{
		Heap:     k.heap.Stats(),
		Executor: k.exec.Stats(),
		TLB:      k.tlb.Stats(),
		Keyboard: k.kbd.Stats(),
	}
}

// DebugDump renders the composite stats with spew, for the CLI and for
// postmortems.
func (k *Kernel) DebugDump() string {
	return spew.Sdump(k.Stats())
}
