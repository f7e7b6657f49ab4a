package remote

import (
	"errors"
	"fmt"

	"github.com/retroenv/retrochip8/internal/chip8"
	"github.com/retroenv/retrochip8/internal/display"
	"github.com/retroenv/retrochip8/internal/runner"
)

// Message types of the binary protocol.
const (
	// MessageFrame is sent by the server after every frame:
	// type, packed framebuffer, sound flag.
	MessageFrame byte = 0x01
	// MessageKey is sent by the client on a key change: type, key, pressed flag.
	MessageKey byte = 0x02
)

// Protocol message sizes.
const (
	FrameMessageSize = 1 + display.PackedSize + 1
	KeyMessageSize   = 3
)

var errMalformedMessage = errors.New("malformed message")

// EncodeFrame returns the frame message for a frame snapshot.
func EncodeFrame(frame *runner.Frame) []byte {
	msg := make([]byte, FrameMessageSize)
	msg[0] = MessageFrame
	packed := frame.Framebuffer.Pack()
	copy(msg[1:], packed[:])
	if frame.Sound {
		msg[FrameMessageSize-1] = 1
	}
	return msg
}

// DecodeFrame decodes a frame message into the framebuffer and sound flag.
func DecodeFrame(msg []byte) (display.Framebuffer, bool, error) {
	if len(msg) != FrameMessageSize || msg[0] != MessageFrame {
		return display.Framebuffer{}, false, fmt.Errorf("%w: frame message of %d bytes", errMalformedMessage, len(msg))
	}

	var packed [display.PackedSize]byte
	copy(packed[:], msg[1:])
	return display.Unpack(packed), msg[FrameMessageSize-1] != 0, nil
}

// EncodeKey returns the key message for a key change.
func EncodeKey(key uint8, pressed bool) []byte {
	msg := []byte{MessageKey, key, 0}
	if pressed {
		msg[2] = 1
	}
	return msg
}

// DecodeKey decodes a key message.
func DecodeKey(msg []byte) (uint8, bool, error) {
	if len(msg) != KeyMessageSize {
		return 0, false, fmt.Errorf("%w: key message of %d bytes", errMalformedMessage, len(msg))
	}
	if msg[0] != MessageKey {
		return 0, false, fmt.Errorf("%w: unexpected message type $%02X", errMalformedMessage, msg[0])
	}
	if msg[1] >= chip8.KeyCount {
		return 0, false, fmt.Errorf("%w $%02X", chip8.ErrInvalidKey, msg[1])
	}
	if msg[2] > 1 {
		return 0, false, fmt.Errorf("%w: invalid key state $%02X", errMalformedMessage, msg[2])
	}
	return msg[1], msg[2] == 1, nil
}
