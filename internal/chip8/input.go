package chip8

import "fmt"

// TickTimers decrements the delay and sound timer by one, stopping at zero.
// The driver calls it at 60 Hz, independent of the instruction rate.
func (m *Machine) TickTimers() {
	if m.delayTimer > 0 {
		m.delayTimer--
	}
	if m.soundTimer > 0 {
		m.soundTimer--
	}
}

// DelayTimer returns the current value of the delay timer.
func (m *Machine) DelayTimer() byte {
	return m.delayTimer
}

// SoundTimer returns the current value of the sound timer. A tone should be
// played while it is not zero.
func (m *Machine) SoundTimer() byte {
	return m.soundTimer
}

// SetKeyState sets the pressed state of a hex keypad key.
func (m *Machine) SetKeyState(key uint8, pressed bool) error {
	if key >= KeyCount {
		return fmt.Errorf("%w $%02X", ErrInvalidKey, key)
	}

	m.keys[key] = pressed
	if pressed && m.wait.active {
		m.wait.seen[key] = true
	}
	return nil
}

// KeyPressed returns whether the given key is currently pressed.
func (m *Machine) KeyPressed(key uint8) bool {
	return key < KeyCount && m.keys[key]
}

// Waiting returns whether the machine is suspended in a LD Vx, K instruction.
func (m *Machine) Waiting() bool {
	return m.wait.active
}

// pollKeyWait completes a pending LD Vx, K instruction once a key press, or
// with the WaitForRelease quirk a key release, has been observed. The lowest
// qualifying key wins if several are available. Completing the instruction
// advances the program counter past it.
func (m *Machine) pollKeyWait() error {
	for key, pressed := range m.keys {
		if pressed {
			m.wait.seen[key] = true
		}
	}

	for key, seen := range m.wait.seen {
		if !seen {
			continue
		}
		if m.cfg.Quirks.WaitForRelease && m.keys[key] {
			continue
		}

		next, err := m.offset(m.pc, opcodeSize)
		if err != nil {
			return err
		}
		m.v[m.wait.register] = uint8(key)
		m.wait = keyWait{}
		m.pc = next
		return nil
	}
	return nil
}
