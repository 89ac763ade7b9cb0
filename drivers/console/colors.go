package console

// Color is one of the 16 text-mode palette colors.
type Color uint8

// The palette, in hardware order. Background cells use the low eight
// entries; foregrounds may use all sixteen.
const (
	Black Color = iota
	Blue
	Green
	Cyan
	Red
	Magenta
	Brown
	LightGray
	DarkGray
	LightBlue
	LightGreen
	LightCyan
	LightRed
	Pink
	Yellow
	White
)

// attr packs a foreground and background pair into one attribute byte.
func attr(fg, bg Color) byte {
	return byte(bg)<<4 | byte(fg)&0x0F
}
