package nes

// APU is a stand-in for the audio processing unit. Audio synthesis is out
// of scope for this core: register reads return 0 and writes are
// discarded, which is enough to keep software that polls $4015 (e.g. for
// DMC/length-counter status) from misbehaving.
type APU struct{}

// NewAPU returns a stub APU.
func NewAPU() *APU {
	return &APU{}
}

func (a *APU) readPort(addr uint16) byte {
	return 0
}

func (a *APU) writePort(addr uint16, v byte) {}

// clock is called once per CPU cycle by CPU.clock. The stub has no
// internal timers to advance.
func (a *APU) clock(c *CPU) {}
