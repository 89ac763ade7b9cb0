package sched

import (
	hclog "github.com/hashicorp/go-hclog"

	"github.com/joshuapare/kernelkit/klog"
)

// defaultQueueCapacity is the ready-queue size used when Options does not
// set one.
const defaultQueueCapacity = 128

// Options controls executor behavior.
//
// Use nil for production-ready defaults.
type Options struct {
	// QueueCapacity is the number of ready-queue slots, rounded up to the
	// next power of two. Spawns and wakes beyond this bound are rejected,
	// never buffered.
	// Default: 128
	QueueCapacity int

	// Logger receives executor diagnostics.
	// Default: the process-wide kernel logger
	Logger hclog.Logger

	// OnPanic runs after a panicking task has been removed from the table.
	// The run loop continues regardless of what it does.
	// Default: log the panic at error level
	OnPanic func(id TaskID, v any)
}

// withDefaults fills unset fields.
func (o *Options) withDefaults() Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.QueueCapacity <= 0 {
		out.QueueCapacity = defaultQueueCapacity
	}
	if out.Logger == nil {
		out.Logger = klog.L
	}
	return out
}
