package kern

import (
	"github.com/hashicorp/go-hclog"

	"github.com/joshuapare/kernelkit/internal/layout"
	"github.com/joshuapare/kernelkit/klog"
	"github.com/joshuapare/kernelkit/mem/heap"
)

// Defaults applied by Boot for zero Config fields.
const (
	DefaultHeapSize       = 1 << 20
	DefaultQueueCapacity  = 128
	DefaultTLBEntries     = 64
	DefaultConsoleWidth   = 80
	DefaultConsoleHeight  = 25
	DefaultKeyboardBuffer = 128
)

// Config sizes every kernel subsystem. The zero value boots with the
// defaults; DefaultConfig spells them out.
type Config struct {
	// HeapSize is the managed region size in bytes, rounded up to whole
	// pages. Every subsystem allocates from this region.
	// Default: 1 MiB.
	HeapSize int

	// HeapConfig is the allocator's size-class strategy.
	// Default: heap.DefaultConfig.
	HeapConfig heap.Config

	// QueueCapacity bounds the executor's ready ring.
	// Default: 128.
	QueueCapacity int

	// TLBEntries caps the translation cache. Negative disables
	// translation caching entirely.
	// Default: 64.
	TLBEntries int

	// ConsoleWidth and ConsoleHeight shape the text screen.
	// Default: 80x25.
	ConsoleWidth  int
	ConsoleHeight int

	// KeyboardBuffer is the scancode ring capacity in bytes.
	// Default: 128.
	KeyboardBuffer int

	// Walk resolves translation cache misses.
	// Default: IdentityWalk.
	Walk WalkFunc

	// Logger is handed to every subsystem.
	// Default: klog.L.
	Logger hclog.Logger
}

// DefaultConfig returns the configuration Boot substitutes for zero
// fields.
func DefaultConfig() Config {
	return Config{
		HeapSize:       DefaultHeapSize,
		HeapConfig:     heap.DefaultConfig,
		QueueCapacity:  DefaultQueueCapacity,
		TLBEntries:     DefaultTLBEntries,
		ConsoleWidth:   DefaultConsoleWidth,
		ConsoleHeight:  DefaultConsoleHeight,
		KeyboardBuffer: DefaultKeyboardBuffer,
		Walk:           IdentityWalk,
		Logger:         klog.L,
	}
}

func (c Config) withDefaults() Config {
	if c.HeapSize <= 0 {
		c.HeapSize = DefaultHeapSize
	} else {
		c.HeapSize = layout.AlignPage(c.HeapSize)
	}
	if len(c.HeapConfig.Classes) == 0 {
		c.HeapConfig = heap.DefaultConfig
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.TLBEntries == 0 {
		c.TLBEntries = DefaultTLBEntries
	} else if c.TLBEntries < 0 {
		c.TLBEntries = 0
	}
	if c.ConsoleWidth <= 0 {
		c.ConsoleWidth = DefaultConsoleWidth
	}
	if c.ConsoleHeight <= 0 {
		c.ConsoleHeight = DefaultConsoleHeight
	}
	if c.KeyboardBuffer <= 0 {
		c.KeyboardBuffer = DefaultKeyboardBuffer
	}
	if c.Walk == nil {
		c.Walk = IdentityWalk
	}
	if c.Logger == nil {
		c.Logger = klog.L
	}
	return c
}
