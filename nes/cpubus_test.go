package nes

import "testing"

func TestCPUBus_RAMMirroring(t *testing.T) {
	_, bus := newTestHarness()

	for a := uint16(0); a < 0x0800; a++ {
		bus.Write(a, byte(a))
	}

	for a := uint16(0); a < 0x2000; a++ {
		if got, want := bus.Read(a), bus.Read(a&0x07FF); got != want {
			t.Fatalf("read(%#04x) = %#02x, want read(%#04x) = %#02x", a, got, a&0x07FF, want)
		}
	}
}

func TestCPUBus_PPURegisterMirroring(t *testing.T) {
	// Writing the ADDR high/low pair through a mirror of $2006 and the data
	// through a mirror of $2007 must be indistinguishable from using the
	// canonical registers.
	_, bus := newTestHarness()

	bus.Write(0x3FFE, 0x20) // $2006 mirror, high byte
	bus.Write(0x3FFE, 0x55) // low byte
	bus.Write(0x200F, 0x99) // $2007 mirror

	bus.Write(0x2006, 0x20)
	bus.Write(0x2006, 0x55)

	bus.Read(0x2007) // prime the read buffer
	if got := bus.Read(0x3FFF); got != 0x99 {
		t.Fatalf("VRAM readback through $3FFF mirror = %#02x, want %#02x", got, 0x99)
	}
}

func TestCPUBus_WriteOnlyRegistersReadAsZero(t *testing.T) {
	_, bus := newTestHarness()

	for _, a := range []uint16{0x2000, 0x2001, 0x2003, 0x2005, 0x2006, 0x4014} {
		bus.Write(a, 0xFF)
		if got := bus.Read(a); got != 0 {
			t.Errorf("read(%#04x) = %#02x, want 0", a, got)
		}
	}
}

func TestCPUBus_APURangeIsInert(t *testing.T) {
	_, bus := newTestHarness()

	for a := uint16(0x4000); a <= 0x4013; a++ {
		bus.Write(a, 0xFF)
		if got := bus.Read(a); got != 0 {
			t.Errorf("read(%#04x) = %#02x, want 0", a, got)
		}
	}
	bus.Write(0x4015, 0xFF)
	if got := bus.Read(0x4015); got != 0 {
		t.Errorf("read($4015) = %#02x, want 0", got)
	}
}

func TestCPUBus_PRGMirroring16K(t *testing.T) {
	// A 16KB NROM image appears in both halves of $8000-$FFFF, and PRG-ROM
	// ignores writes.
	prg := make([]byte, 0x4000)
	prg[0] = 0xD8
	cart := &Cartridge{prg: prg, chr: make([]byte, 0x2000)}
	bus := &CPUBus{Cartridge: cart, RAM: NewRAM()}

	if got := bus.ReadAddress(0x8000); got != 0x00D8 {
		t.Fatalf("read16($8000) = %#04x, want %#04x", got, 0x00D8)
	}
	if got := bus.Read(0xC000); got != 0xD8 {
		t.Fatalf("read($C000) = %#02x, want %#02x", got, 0xD8)
	}

	bus.Write(0x8000, 0x42)
	if got := bus.Read(0x8000); got != 0xD8 {
		t.Fatalf("PRG-ROM accepted a write: read($8000) = %#02x, want %#02x", got, 0xD8)
	}
}

func TestCPUBus_OAMDMA(t *testing.T) {
	// A $4014 write copies a full page into OAM starting at the current
	// OAMADDR, wrapping modulo 256.
	c, bus := newTestHarness()

	for i := 0; i < 256; i++ {
		bus.Write(uint16(0x0200+i), byte(i))
	}
	bus.Write(0x2003, 0x10) // OAMADDR

	c.write(bus, 0x4014, 0x02)

	for i := 0; i < 256; i++ {
		if got, want := bus.PPU.oamData[byte(0x10+i)], byte(i); got != want {
			t.Fatalf("oam[%#02x] = %#02x, want %#02x", byte(0x10+i), got, want)
		}
	}
	if got := bus.PPU.OAMAddress; got != 0x10 {
		t.Fatalf("OAMADDR after DMA = %#02x, want %#02x (wrapped back around)", got, 0x10)
	}
}

func TestCPUBus_OAMDATAWraps(t *testing.T) {
	_, bus := newTestHarness()

	bus.Write(0x2003, 0xFF)
	bus.Write(0x2004, 0xAA)
	bus.Write(0x2004, 0xBB)

	if got := bus.PPU.oamData[0xFF]; got != 0xAA {
		t.Fatalf("oam[0xFF] = %#02x, want %#02x", got, 0xAA)
	}
	if got := bus.PPU.oamData[0x00]; got != 0xBB {
		t.Fatalf("oam[0x00] = %#02x, want %#02x (OAMADDR should wrap)", got, 0xBB)
	}
}
