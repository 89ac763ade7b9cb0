package keyboard

// Scancode set 1 constants. A break code is the make code with the high
// bit set; 0xE0 prefixes the extended block (arrows, right ctrl, keypad
// enter), whose codes carry no character meaning here.
const (
	scLeftShift    = 0x2A
	scRightShift   = 0x36
	scCapsLock     = 0x3A
	breakBit       = 0x80
	extendedPrefix = 0xE0
)

// decoder turns a raw set-1 scancode stream into runes for the US
// layout. It tracks just enough state for typing: the two shift keys,
// caps lock, and whether the previous byte was the extended prefix.
// Break codes matter only for releasing shift.
type decoder struct {
	lshift bool
	rshift bool
	caps   bool
	e0     bool
}

// step consumes one scancode and reports the rune it completes, if any.
func (d *decoder) step(code byte) (rune, bool) {
	if d.e0 {
		// Second byte of an extended sequence, make or break.
		d.e0 = false
		return 0, false
	}
	if code == extendedPrefix {
		d.e0 = true
		return 0, false
	}
	if code&breakBit != 0 {
		switch code &^ breakBit {
		case scLeftShift:
			d.lshift = false
		case scRightShift:
			d.rshift = false
		}
		return 0, false
	}
	switch code {
	case scLeftShift:
		d.lshift = true
		return 0, false
	case scRightShift:
		d.rshift = true
		return 0, false
	case scCapsLock:
		d.caps = !d.caps
		return 0, false
	}
	ch := keymapNormal[code]
	if ch == 0 {
		return 0, false
	}
	shift := d.lshift || d.rshift
	if ch >= 'a' && ch <= 'z' {
		// Caps lock and shift cancel out on letters.
		if shift != d.caps {
			return keymapShifted[code], true
		}
		return ch, true
	}
	if shift {
		return keymapShifted[code], true
	}
	return ch, true
}

// keymapNormal maps set-1 make codes to unshifted US-layout runes. Zero
// entries are keys with no character meaning here: escape, the
// modifiers, function keys, and everything past the space bar.
var keymapNormal = [256]rune{
	0, 0, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', '\b', // 0x00-0x0E
	'\t', 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', '\n', // 0x0F-0x1C
	0, 'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', '\'', '`', // 0x1D-0x29
	0, '\\', 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/', 0, // 0x2A-0x36
	'*', 0, ' ', // 0x37-0x39
}

// keymapShifted is the shift layer of keymapNormal.
var keymapShifted = [256]rune{
	0, 0, '!', '@', '#', '$', '%', '^', '&', '*', '(', ')', '_', '+', '\b', // 0x00-0x0E
	'\t', 'Q', 'W', 'E', 'R', 'T', 'Y', 'U', 'I', 'O', 'P', '{', '}', '\n', // 0x0F-0x1C
	0, 'A', 'S', 'D', 'F', 'G', 'H', 'J', 'K', 'L', ':', '"', '~', // 0x1D-0x29
	0, '|', 'Z', 'X', 'C', 'V', 'B', 'N', 'M', '<', '>', '?', 0, // 0x2A-0x36
	'*', 0, ' ', // 0x37-0x39
}
