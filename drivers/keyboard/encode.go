package keyboard

import "sync"

// encodeEntry records how to produce a rune: the make code and whether
// a shift press must bracket it.
type encodeEntry struct {
	code    byte
	shifted bool
}

var (
	encodeOnce sync.Once
	encodeMap  map[rune]encodeEntry
)

// Encode returns the set-1 scancode sequence that types r on the US
// layout, shift press and releases included. The sequence assumes caps
// lock is off. ok is false for runes the layout cannot produce.
func Encode(r rune) (seq []byte, ok bool) {
	encodeOnce.Do(buildEncodeMap)
	e, found := encodeMap[r]
	if !found {
		return nil, false
	}
	if e.shifted {
		return []byte{scLeftShift, e.code, e.code | breakBit, scLeftShift | breakBit}, true
	}
	return []byte{e.code, e.code | breakBit}, true
}

// EncodeString returns the scancode sequence typing s. Runes the layout
// cannot produce are skipped; complete reports whether none were.
func EncodeString(s string) (seq []byte, complete bool) {
	complete = true
	for _, r := range s {
		codes, ok := Encode(r)
		if !ok {
			complete = false
			continue
		}
		seq = append(seq, codes...)
	}
	return seq, complete
}

// buildEncodeMap inverts the keymaps, preferring unshifted codes where
// both layers produce the same rune.
func buildEncodeMap() {
	encodeMap = make(map[rune]encodeEntry, 96)
	for code, r := range keymapNormal {
		if r == 0 {
			continue
		}
		if _, ok := encodeMap[r]; !ok {
			encodeMap[r] = encodeEntry{code: byte(code)}
		}
	}
	for code, r := range keymapShifted {
		if r == 0 {
			continue
		}
		if _, ok := encodeMap[r]; !ok {
			encodeMap[r] = encodeEntry{code: byte(code), shifted: true}
		}
	}
}
