package nes

import (
	"fmt"
	"image"
	"io"
	"os"
	"time"
)

// CPUView exposes the CPU state a host callback is allowed to read at an
// instruction boundary: enough for tracing/debugging, nothing that would
// let a callback reach into CPU internals.
type CPUView struct {
	PC      uint16
	A, X, Y byte
	P       byte
	SP      byte
	Cycles  uint64
}

// FrameView is delivered to the frame callback once per vertical blank.
type FrameView struct {
	Buffer *image.RGBA
	Frame  uint64
}

// CPUCallback is invoked at each instruction boundary. Returning false
// stops the run loop at the next checkpoint.
type CPUCallback func(CPUView) bool

// FrameCallback is invoked once per vertical blank with a read-only
// framebuffer view and mutable access to both joypads for button
// injection. Returning false stops the run loop.
type FrameCallback func(frame FrameView, joypad1, joypad2 *Controller) bool

// Console owns every piece of emulator state and is the only thing that
// mutates it; the CPU and PPU borrow it for the duration of a tick rather
// than holding shared, independently-mutable references to each other.
type Console struct {
	Cartridge *Cartridge
	CPU       *CPU
	PPU       *PPU
	APU       *APU
	CPUBus    *CPUBus
	PPUBus    *PPUBus
	Joypad1   *Controller
	Joypad2   *Controller

	frameTime time.Duration
}

// NewConsole builds a console around an already-loaded cartridge. debugOut,
// if non-nil, receives one nestest-format trace line per executed
// instruction.
func NewConsole(cartridge *Cartridge, debugOut io.Writer) *Console {
	ppuBus := NewPPUBus(cartridge)
	ppu := NewPPU(ppuBus)
	apu := NewAPU()
	cpu := NewCPU(debugOut, ppu, apu)

	joypad1 := &Controller{}
	joypad2 := &Controller{}

	bus := &CPUBus{
		Cartridge: cartridge,
		RAM:       NewRAM(),
		CPU:       cpu,
		PPU:       ppu,
		APU:       apu,
		Joypad1:   joypad1,
		Joypad2:   joypad2,
	}

	cpu.init(bus)

	return &Console{
		Cartridge: cartridge,
		CPU:       cpu,
		PPU:       ppu,
		APU:       apu,
		CPUBus:    bus,
		PPUBus:    ppuBus,
		Joypad1:   joypad1,
		Joypad2:   joypad2,
	}
}

// LoadConsole reads an iNES image from r and wires up a Console for it.
func LoadConsole(r io.Reader, debugOut io.Writer) (*Console, error) {
	cart, err := LoadINES(r)
	if err != nil {
		return nil, err
	}
	return NewConsole(cart, debugOut), nil
}

// LoadConsolePath opens path and wires up a Console for it.
func LoadConsolePath(path string, debugOut io.Writer) (*Console, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nes: unable to open rom: %s", err)
	}
	defer f.Close()

	return LoadConsole(f, debugOut)
}

// Reset pulls the CPU's reset line, restoring the power-on register state
// described by the reset property (A=X=Y=0, SP=0xFD, PC read from $FFFC).
func (c *Console) Reset() {
	c.CPU.reset(c.CPUBus)
}

// SetPC overrides the program counter directly, bypassing the reset
// vector. Used by golden-trace harnesses (nestest) that boot straight into
// a fixed entry point rather than through the cartridge's own reset
// handler.
func (c *Console) SetPC(pc uint16) {
	c.CPU.setPC(pc)
}

func (c *Console) Press(player int, button Button) {
	c.joypad(player).Press(button)
}

func (c *Console) Release(player int, button Button) {
	c.joypad(player).Release(button)
}

func (c *Console) joypad(player int) *Controller {
	if player == 1 {
		return c.Joypad2
	}
	return c.Joypad1
}

func (c *Console) Read(address uint16) byte {
	return c.CPUBus.Read(address)
}

func (c *Console) Write(address uint16, value byte) {
	c.CPUBus.Write(address, value)
}

func (c *Console) cpuView() CPUView {
	return CPUView{
		PC:     c.CPU.pc,
		A:      c.CPU.a,
		X:      c.CPU.x,
		Y:      c.CPU.y,
		P:      byte(c.CPU.p),
		SP:     c.CPU.s,
		Cycles: c.CPU.cycles,
	}
}

// Run drives the CPU/PPU interleave described by the console's main loop:
// at each instruction boundary it offers the host a chance to trace or
// stop, executes one instruction (which internally ticks the PPU 3 times
// per CPU cycle), and fires frameCb on each rising edge of the NMI line —
// once per vertical blank, provided the program has enabled vblank NMIs
// through CTRL.
// A nil callback is treated as always-continue. Run returns nil when either
// callback returns false or when the CPU halts (BRK), and the fatal error
// when execution decodes a jam opcode or drives the PPU bus somewhere
// unreachable. The framebuffer is left in its last rendered state either
// way.
func (c *Console) Run(cpuCb CPUCallback, frameCb FrameCallback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case *CPUError:
				err = e
			case *PPUError:
				err = e
			default:
				panic(r)
			}
		}
	}()

	for {
		if cpuCb != nil && !cpuCb(c.cpuView()) {
			return nil
		}

		if c.CPU.Halted() {
			return nil
		}

		preNmi := c.CPU.nmiPending()
		c.CPU.execute(c.CPUBus)

		if !preNmi && c.CPU.nmiPending() {
			view := FrameView{Buffer: c.PPU.Buffer(), Frame: c.PPU.Frame}
			if frameCb != nil && !frameCb(view, c.Joypad1, c.Joypad2) {
				return nil
			}
		}
	}
}

// StepFrame runs the CPU until one full frame has been rendered, ignoring
// host callbacks. It is a convenience for tests and simple hosts that only
// care about the framebuffer.
func (c *Console) StepFrame() {
	start := time.Now()
	frame := c.PPU.Frame
	for frame == c.PPU.Frame && !c.CPU.Halted() {
		c.CPU.execute(c.CPUBus)
	}
	c.frameTime = time.Since(start)
}

// Buffer returns the PPU's current framebuffer. The backing array is
// reused frame to frame; callers that need a stable copy must clone it.
func (c *Console) Buffer() *image.RGBA {
	return c.PPU.Buffer()
}

// FrameTime reports how long the most recent StepFrame call took to run,
// for hosts that want to surface emulation speed alongside display FPS.
func (c *Console) FrameTime() time.Duration {
	return c.frameTime
}

// Step executes exactly one CPU instruction and reports the cycles spent.
func (c *Console) Step() uint64 {
	return c.CPU.execute(c.CPUBus)
}
