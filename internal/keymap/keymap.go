// Package keymap maps a QWERTY keyboard to the CHIP-8 hex keypad.
//
// The left block of a QWERTY keyboard replaces the 4×4 keypad of the
// COSMAC VIP:
//
//	1 2 3 4      1 2 3 C
//	Q W E R  ->  4 5 6 D
//	A S D F      7 8 9 E
//	Z X C V      A 0 B F
package keymap

import "unicode"

// layout contains the keyboard rune for every keypad key.
var layout = [16]rune{
	0x0: 'x',
	0x1: '1',
	0x2: '2',
	0x3: '3',
	0x4: 'q',
	0x5: 'w',
	0x6: 'e',
	0x7: 'a',
	0x8: 's',
	0x9: 'd',
	0xA: 'z',
	0xB: 'c',
	0xC: '4',
	0xD: 'r',
	0xE: 'f',
	0xF: 'v',
}

var keys = func() map[rune]uint8 {
	m := make(map[rune]uint8, len(layout))
	for key, r := range layout {
		m[r] = uint8(key)
	}
	return m
}()

// Key returns the keypad key for a keyboard rune. Letters are matched case
// insensitive.
func Key(r rune) (uint8, bool) {
	key, ok := keys[unicode.ToLower(r)]
	return key, ok
}

// Rune returns the keyboard rune of a keypad key.
func Rune(key uint8) (rune, bool) {
	if int(key) >= len(layout) {
		return 0, false
	}
	return layout[key], true
}
