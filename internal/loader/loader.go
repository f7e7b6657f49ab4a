// Package loader handles ROM file loading operations.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/retrochip8/internal/chip8"
)

// ErrEmptyFile is returned for ROM files without content.
var ErrEmptyFile = errors.New("empty rom file")

// Loader handles loading ROM files from disk.
type Loader struct{}

// New creates a new ROM loader.
func New() *Loader {
	return &Loader{}
}

// Load reads a raw CHIP-8 ROM file. CHIP-8 ROMs have no header, the whole
// file is loaded into the program space.
func (l *Loader) Load(fileName string) ([]byte, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", fileName, err)
	}
	defer func() { _ = file.Close() }()

	// read one byte more than allowed to detect oversized files without
	// reading them completely
	data, err := io.ReadAll(io.LimitReader(file, chip8.MaxROMSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", fileName, err)
	}

	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, fileName)
	case len(data) > chip8.MaxROMSize:
		return nil, fmt.Errorf("%w: %s exceeds the maximum of %d bytes",
			chip8.ErrROMTooLarge, fileName, chip8.MaxROMSize)
	}
	return data, nil
}
