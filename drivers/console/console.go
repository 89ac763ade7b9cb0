// Package console drives a VGA-style text screen whose framebuffer lives
// in the kernel heap.
//
// The screen is width*height two-byte cells in one heap block: low byte
// the CP437 character, high byte the color attribute (background<<4 |
// foreground). A cursor advances left to right, wraps at the right edge,
// and scrolls the screen up one row past the bottom, clearing the new
// last row. Runes without a CP437 form render as the 0xFE block glyph.
//
// Console is safe for concurrent use. Tasks and panic reporting paths
// write to the same screen; the mutex orders whole calls, so each Write
// lands as one unit.
package console

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/encoding/charmap"

	"github.com/joshuapare/kernelkit/internal/layout"
	"github.com/joshuapare/kernelkit/mem/heap"
)

// ErrClosed is returned by writes and Close after the framebuffer cell
// has been returned to the heap.
var ErrClosed = errors.New("console: closed")

const (
	defaultWidth  = 80
	defaultHeight = 25

	// cellSize is the byte width of one screen cell: character, attribute.
	cellSize = 2

	tabWidth = 8

	// replacementChar is the CP437 glyph shown for runes the code page
	// cannot express.
	replacementChar = 0xFE
)

// Options configures a Console. A nil *Options selects all defaults.
type Options struct {
	// Width is the screen width in character cells.
	// Default: 80.
	Width int

	// Height is the screen height in rows.
	// Default: 25.
	Height int

	// Foreground is the starting text color.
	// Default: White.
	Foreground Color

	// Background is the starting background color.
	// Default: Black.
	Background Color
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Width <= 0 {
		out.Width = defaultWidth
	}
	if out.Height <= 0 {
		out.Height = defaultHeight
	}
	if out.Foreground == Black {
		out.Foreground = White
	}
	return out
}

// Console is a text screen over one heap-allocated framebuffer cell.
// Construct with New; the zero value is not usable.
type Console struct {
	mu   sync.Mutex
	heap *heap.Allocator

	ref    heap.Ref
	fb     []byte // nil once closed
	fbSize int

	width  int
	height int

	curX int
	curY int
	attr byte
}

// New allocates a framebuffer from a and returns a console writing to
// it. Pass nil opts for an 80x25 screen with white-on-black text.
func New(a *heap.Allocator, opts *Options) (*Console, error) {
	if a == nil {
		return nil, errors.New("console: nil allocator")
	}
	o := opts.withDefaults()
	size := o.Width * o.Height * cellSize
	ref, fb, err := a.Alloc(size, layout.WordSize)
	if err != nil {
		return nil, fmt.Errorf("console: allocating %dx%d framebuffer: %w", o.Width, o.Height, err)
	}
	c := &Console{
		heap:   a,
		ref:    ref,
		fb:     fb,
		fbSize: size,
		width:  o.Width,
		height: o.Height,
		attr:   attr(o.Foreground, o.Background),
	}
	c.clearAll()
	return c, nil
}

// Write renders p as UTF-8 text at the cursor. It implements io.Writer
// so fmt.Fprintf can target the screen; on success n is len(p).
func (c *Console) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil {
		return 0, ErrClosed
	}
	for _, r := range string(p) {
		c.writeRune(r)
	}
	return len(p), nil
}

// WriteString renders s at the cursor. It implements io.StringWriter.
func (c *Console) WriteString(s string) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil {
		return 0, ErrClosed
	}
	for _, r := range s {
		c.writeRune(r)
	}
	return len(s), nil
}

// WriteRune renders a single rune at the cursor.
func (c *Console) WriteRune(r rune) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil {
		return ErrClosed
	}
	c.writeRune(r)
	return nil
}

// SetColor changes the attribute applied by subsequent writes. Cells
// already on screen keep their colors.
func (c *Console) SetColor(fg, bg Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attr = attr(fg, bg)
}

// Clear blanks the screen with the current attribute and homes the
// cursor.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil {
		return
	}
	c.clearAll()
}

// Row returns the text of row y decoded from CP437, with trailing
// blanks trimmed. Out-of-range rows and closed consoles return "".
func (c *Console) Row(y int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil || y < 0 || y >= c.height {
		return ""
	}
	return c.row(y)
}

// String returns the whole screen, one line per row, trailing blank
// rows dropped.
func (c *Console) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil {
		return ""
	}
	rows := make([]string, c.height)
	for y := 0; y < c.height; y++ {
		rows[y] = c.row(y)
	}
	return strings.TrimRight(strings.Join(rows, "\n"), "\n")
}

// Cell returns the rune and colors at x, y. ok is false out of range or
// after Close.
func (c *Console) Cell(x, y int) (r rune, fg, bg Color, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil || x < 0 || x >= c.width || y < 0 || y >= c.height {
		return 0, 0, 0, false
	}
	cell := layout.ReadU16(c.fb, (y*c.width+x)*cellSize)
	a := byte(cell >> 8)
	return charmap.CodePage437.DecodeByte(byte(cell)), Color(a & 0x0F), Color(a >> 4), true
}

// Size returns the screen dimensions in cells.
func (c *Console) Size() (width, height int) {
	return c.width, c.height
}

// Cursor returns the current write position.
func (c *Console) Cursor() (x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curX, c.curY
}

// Close returns the framebuffer cell to the heap. Writes after Close
// return ErrClosed, as does a second Close.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fb == nil {
		return ErrClosed
	}
	if err := c.heap.Free(c.ref, c.fbSize, layout.WordSize); err != nil {
		return fmt.Errorf("console: freeing framebuffer: %w", err)
	}
	c.fb = nil
	c.ref = heap.NilRef
	return nil
}

// writeRune dispatches one rune. Callers hold c.mu.
func (c *Console) writeRune(r rune) {
	switch r {
	case '\n':
		c.newline()
	case '\r':
		c.curX = 0
	case '\b':
		if c.curX > 0 {
			c.curX--
			c.putCell(c.curX, c.curY, ' ')
		}
	case '\t':
		stop := (c.curX/tabWidth + 1) * tabWidth
		if stop >= c.width {
			c.newline()
			return
		}
		for c.curX < stop {
			c.putCell(c.curX, c.curY, ' ')
			c.curX++
		}
	default:
		b, ok := charmap.CodePage437.EncodeRune(r)
		if !ok {
			b = replacementChar
		}
		c.putCell(c.curX, c.curY, b)
		c.curX++
		if c.curX >= c.width {
			c.newline()
		}
	}
}

func (c *Console) newline() {
	c.curX = 0
	if c.curY+1 < c.height {
		c.curY++
		return
	}
	c.scroll()
}

// scroll moves every row up one and blanks the last. The cursor stays on
// the bottom row.
func (c *Console) scroll() {
	rowBytes := c.width * cellSize
	copy(c.fb, c.fb[rowBytes:])
	c.clearRow(c.height - 1)
}

func (c *Console) clearAll() {
	for y := 0; y < c.height; y++ {
		c.clearRow(y)
	}
	c.curX, c.curY = 0, 0
}

func (c *Console) clearRow(y int) {
	for x := 0; x < c.width; x++ {
		c.putCell(x, y, ' ')
	}
}

func (c *Console) putCell(x, y int, ch byte) {
	layout.PutU16(c.fb, (y*c.width+x)*cellSize, uint16(c.attr)<<8|uint16(ch))
}

func (c *Console) row(y int) string {
	var sb strings.Builder
	for x := 0; x < c.width; x++ {
		sb.WriteRune(charmap.CodePage437.DecodeByte(c.fb[(y*c.width+x)*cellSize]))
	}
	return strings.TrimRight(sb.String(), " ")
}
