// Package options contains the program options.
package options

// Frontend names.
const (
	FrontendDesktop  = "desktop"
	FrontendDisasm   = "disasm"
	FrontendHeadless = "headless"
	FrontendRemote   = "remote"
	FrontendTerminal = "terminal"
)

// Frontends lists all supported frontend names.
var Frontends = []string{FrontendDesktop, FrontendDisasm, FrontendHeadless, FrontendRemote, FrontendTerminal}

// Addressing policy names.
const (
	AddressingWrap  = "wrap"
	AddressingFault = "fault"
)

// Parameters contains file path and network options.
type Parameters struct {
	Input      string // ROM file to run
	Output     string // disassembly output file, stdout if empty
	Screenshot string // PNG file written by the headless frontend
	Listen     string // address of the remote frontend HTTP server
}

// Flags contains behavior options.
type Flags struct {
	Profile    string // quirk profile, auto-detected from the file extension if empty
	Frontend   string
	Addressing string

	InstructionsPerSecond int
	Frames                int // frames to run in headless mode
	Scale                 int // window or screenshot size factor
	Seed                  uint64
	SeedSet               bool // Seed was given explicitly, zero included

	Debug bool
	Quiet bool
	Trace bool // log every executed instruction
}

// OutputFlags contains disassembly output formatting options.
type OutputFlags struct {
	NoHexComments bool
	NoOffsets     bool
	ZeroBytes     bool
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
	OutputFlags
}
