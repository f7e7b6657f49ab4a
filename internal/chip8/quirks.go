package chip8

import (
	"fmt"
	"sort"
	"strings"
)

// Quirk profile names.
const (
	ProfileModern    = "modern"
	ProfileVIP       = "vip"
	ProfileSuperChip = "schip"
)

// Quirks selects the behavior of instructions that historic interpreters
// implement differently. The zero value is the modern profile.
type Quirks struct {
	// ResetVF clears VF after OR, AND and XOR.
	ResetVF bool

	// ShiftUsesVY makes SHR and SHL shift Vy into Vx instead of shifting Vx in place.
	ShiftUsesVY bool

	// IncrementIndex leaves I pointing after the last register accessed by
	// LD [I], Vx and LD Vx, [I].
	IncrementIndex bool

	// WaitForRelease makes LD Vx, K complete when a pressed key is released
	// instead of as soon as a key is pressed.
	WaitForRelease bool

	// JumpUsesVX makes JP V0, addr add the register selected by the highest
	// address nibble instead of V0.
	JumpUsesVX bool
}

var profiles = map[string]Quirks{
	ProfileModern: {},
	ProfileVIP: {
		ResetVF:        true,
		ShiftUsesVY:    true,
		IncrementIndex: true,
		WaitForRelease: true,
	},
	ProfileSuperChip: {
		JumpUsesVX: true,
	},
}

// QuirksForProfile returns the quirk settings of a named interpreter profile.
func QuirksForProfile(name string) (Quirks, error) {
	q, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Quirks{}, fmt.Errorf("unsupported quirk profile '%s'. Valid options: %s",
			name, strings.Join(Profiles(), ", "))
	}
	return q, nil
}

// Profiles returns the sorted names of all known quirk profiles.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
