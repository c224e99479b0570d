package nes

import (
	"testing"
)

// newTestHarness builds a CPU wired to a CPUBus backed by a synthetic
// mapper-0 cartridge, its RAM pre-loaded with ram, and PRG filled with
// NOPs. The real PPU/APU are used (stubs aside) since CPU.clock ticks
// them unconditionally.
func newTestHarness(ram ...byte) (*CPU, *CPUBus) {
	prg := make([]byte, 0x8000)
	for i := range prg {
		prg[i] = 0xEA // NOP
	}
	cart := &Cartridge{prg: prg, chr: make([]byte, 0x2000)}

	ppuBus := NewPPUBus(cart)
	ppu := NewPPU(ppuBus)
	apu := NewAPU()
	c := NewCPU(nil, ppu, apu)

	r := NewRAM()
	copy(r.data, ram)

	bus := &CPUBus{
		Cartridge: cart,
		RAM:       r,
		CPU:       c,
		PPU:       ppu,
		APU:       apu,
		Joypad1:   &Controller{},
		Joypad2:   &Controller{},
	}
	c.setPC(0x8000)
	return c, bus
}

func TestCPU_PowerOnState(t *testing.T) {
	c, _ := newTestHarness()

	if c.s != 0xFD {
		t.Errorf("SP = %#02x, want %#02x", c.s, 0xFD)
	}
	if c.p&interruptDisable == 0 {
		t.Error("interruptDisable should be set at power-on")
	}
	if c.Halted() {
		t.Error("CPU should not be halted at power-on")
	}
}

func TestCPU_LDAImmediate(t *testing.T) {
	c, bus := newTestHarness()
	bus.Cartridge.prg[0] = 0xA9 // LDA #imm
	bus.Cartridge.prg[1] = 0x00
	c.setPC(0x8000)

	c.execute(bus)

	if c.a != 0 {
		t.Errorf("A = %#02x, want 0", c.a)
	}
	if c.p&zero == 0 {
		t.Error("zero flag should be set after loading 0")
	}
	if c.p&negative != 0 {
		t.Error("negative flag should be clear after loading 0")
	}
}

func TestCPU_LDAImmediate_NegativeFlag(t *testing.T) {
	c, bus := newTestHarness()
	bus.Cartridge.prg[0] = 0xA9 // LDA #imm
	bus.Cartridge.prg[1] = 0x80
	c.setPC(0x8000)

	c.execute(bus)

	if c.a != 0x80 {
		t.Errorf("A = %#02x, want %#02x", c.a, 0x80)
	}
	if c.p&negative == 0 {
		t.Error("negative flag should be set after loading 0x80")
	}
}

func TestCPU_INXOverflow(t *testing.T) {
	c, bus := newTestHarness()
	bus.Cartridge.prg[0] = 0xE8 // INX
	c.setPC(0x8000)
	c.x = 0xFF

	c.execute(bus)

	if c.x != 0 {
		t.Errorf("X = %#02x, want 0", c.x)
	}
	if c.p&zero == 0 {
		t.Error("zero flag should be set when X wraps to 0")
	}
}

func TestCPU_PCAdvancesByInstructionLength(t *testing.T) {
	c, bus := newTestHarness()
	bus.Cartridge.prg[0] = 0xA9 // LDA #imm (2 bytes)
	bus.Cartridge.prg[1] = 0x01
	bus.Cartridge.prg[2] = 0x8D // STA absolute (3 bytes)
	bus.Cartridge.prg[3] = 0x00
	bus.Cartridge.prg[4] = 0x00
	c.setPC(0x8000)

	c.execute(bus)
	if c.pc != 0x8002 {
		t.Fatalf("after LDA #imm, PC = %#04x, want %#04x", c.pc, 0x8002)
	}

	c.execute(bus)
	if c.pc != 0x8005 {
		t.Fatalf("after STA absolute, PC = %#04x, want %#04x", c.pc, 0x8005)
	}
}

func TestCPU_JMPIndirectPageWrap(t *testing.T) {
	// The classic 6502 bug: an indirect JMP whose pointer lives at a page
	// boundary ($80FF) fetches its high byte from $8000 instead of
	// crossing into $8100.
	c, bus := newTestHarness()
	bus.Cartridge.prg[0] = 0x6C // JMP (ind), also doubles as the wrapped-to hi byte
	bus.Cartridge.prg[1] = 0xFF
	bus.Cartridge.prg[2] = 0x80 // pointer = 0x80FF
	bus.Cartridge.prg[0xFF] = 0x34

	c.setPC(0x8000)
	c.execute(bus)

	want := uint16(0x6C34) // hi = prg[$8000] = 0x6C, lo = prg[$80FF] = 0x34
	if c.pc != want {
		t.Fatalf("JMP (ind) page wrap: PC = %#04x, want %#04x", c.pc, want)
	}
}

func TestCPU_BIT(t *testing.T) {
	c, bus := newTestHarness()
	bus.Cartridge.prg[0] = 0x24 // BIT zero page
	bus.Cartridge.prg[1] = 0x10
	bus.RAM.Write(0x10, 0xC0) // bits 6 and 7 set

	c.a = 0x00
	c.setPC(0x8000)
	c.execute(bus)

	if c.p&negative == 0 {
		t.Error("BIT should copy bit 7 of the operand into N")
	}
	if c.p&overflow == 0 {
		t.Error("BIT should copy bit 6 of the operand into V")
	}
	if c.p&zero == 0 {
		t.Error("BIT should set Z when A & M == 0")
	}
}

func TestCPU_ADC(t *testing.T) {
	tests := []struct {
		name         string
		a, operand   byte
		wantA        byte
		wantCarry    bool
		wantOverflow bool
	}{
		{"no carry no overflow", 0x50, 0x10, 0x60, false, false},
		{"no carry, signed overflow", 0x50, 0x50, 0xA0, false, true},
		{"unsigned carry, no overflow", 0x50, 0xD0, 0x20, true, false},
		{"unsigned carry and signed overflow", 0xD0, 0x90, 0x60, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := newTestHarness(tt.operand)
			c.a = tt.a
			c.adc(bus, ZeroPage, 0x0000)

			if c.a != tt.wantA {
				t.Errorf("A = %#02x, want %#02x", c.a, tt.wantA)
			}
			if got := c.p&carry != 0; got != tt.wantCarry {
				t.Errorf("carry = %v, want %v", got, tt.wantCarry)
			}
			if got := c.p&overflow != 0; got != tt.wantOverflow {
				t.Errorf("overflow = %v, want %v", got, tt.wantOverflow)
			}
		})
	}
}

func TestCPU_SBC(t *testing.T) {
	tests := []struct {
		name         string
		a, operand   byte
		wantA        byte
		wantCarry    bool
		wantOverflow bool
	}{
		// SBC without the carry flag pre-set subtracts an extra 1 (borrow in).
		{"unsigned borrow, no overflow", 0x50, 0xF0, 0x5F, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := newTestHarness(tt.operand)
			c.a = tt.a
			c.sbc(bus, ZeroPage, 0x0000)

			if c.a != tt.wantA {
				t.Errorf("A = %#02x, want %#02x", c.a, tt.wantA)
			}
			if got := c.p&carry != 0; got != tt.wantCarry {
				t.Errorf("carry = %v, want %v", got, tt.wantCarry)
			}
			if got := c.p&overflow != 0; got != tt.wantOverflow {
				t.Errorf("overflow = %v, want %v", got, tt.wantOverflow)
			}
		})
	}
}

func TestCPU_LDAZeroPage(t *testing.T) {
	c, bus := newTestHarness()
	bus.RAM.Write(0x10, 0x55)
	bus.Cartridge.prg[0] = 0xA5 // LDA zero page
	bus.Cartridge.prg[1] = 0x10
	c.setPC(0x8000)

	c.execute(bus)

	if c.a != 0x55 {
		t.Errorf("A = %#02x, want %#02x", c.a, 0x55)
	}
	if c.p&zero != 0 {
		t.Error("zero flag should be clear after loading 0x55")
	}
	if c.p&negative != 0 {
		t.Error("negative flag should be clear after loading 0x55")
	}
}

func TestCPU_BranchCycles(t *testing.T) {
	tests := []struct {
		name       string
		zero       bool
		operand    byte
		wantCycles uint64
	}{
		{"not taken", false, 0xFE, 2},
		{"taken, same page", true, 0xFE, 3}, // -2: target $8000
		{"taken, page cross", true, 0xFD, 4}, // -3: target $7FFF
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := newTestHarness()
			bus.Cartridge.prg[0] = 0xF0 // BEQ
			bus.Cartridge.prg[1] = tt.operand
			c.setPC(0x8000)
			if tt.zero {
				c.p |= zero
			} else {
				c.p &^= zero
			}

			if got := c.execute(bus); got != tt.wantCycles {
				t.Errorf("BEQ spent %d cycles, want %d", got, tt.wantCycles)
			}
		})
	}
}

func TestCPU_PageCrossPenalty(t *testing.T) {
	// LDA absolute,X costs 4 cycles, plus one more when indexing crosses a
	// page boundary.
	run := func(base uint16, x byte) uint64 {
		c, bus := newTestHarness()
		bus.Cartridge.prg[0] = 0xBD // LDA abs,X
		bus.Cartridge.prg[1] = byte(base)
		bus.Cartridge.prg[2] = byte(base >> 8)
		c.setPC(0x8000)
		c.x = x
		return c.execute(bus)
	}

	if got := run(0x0010, 0x01); got != 4 {
		t.Errorf("no page cross: %d cycles, want 4", got)
	}
	if got := run(0x00FF, 0x01); got != 5 {
		t.Errorf("page cross: %d cycles, want 5", got)
	}
}

func TestCPU_BRKHalts(t *testing.T) {
	c, bus := newTestHarness()
	bus.Cartridge.prg[0] = 0x00 // BRK
	c.setPC(0x8000)

	c.execute(bus)
	if !c.Halted() {
		t.Fatal("CPU should be halted after executing BRK")
	}

	pc := c.pc
	if n := c.execute(bus); n != 0 {
		t.Errorf("execute() after halt should be a no-op, spent %d cycles", n)
	}
	if c.pc != pc {
		t.Error("PC should not advance once halted")
	}
}
