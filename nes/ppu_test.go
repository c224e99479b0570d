package nes

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
)

func TestPPURegisters(t *testing.T) {
	type result struct {
		t, v uint16
		x, w byte
	}

	type prev result
	type want result

	parse := func(s string) uint64 {
		s = strings.Replace(s, " ", "", -1)
		s = strings.Replace(s, ".", "0", -1)
		n, err := strconv.ParseUint(s, 2, 64)
		if err != nil {
			panic(err)
		}
		return n
	}
	p16 := func(s string) uint16 { return uint16(parse(s)) }
	p8 := func(s string) uint8 { return uint8(parse(s)) }

	ppu := &PPU{}

	tests := []struct {
		name  string
		op    func()
		prev  prev
		want  want
		tmask uint16
	}{
		{
			// tests are from https://wiki.nesdev.com/w/index.php?title=PPU_scrolling&redirect=no#Summary
			name:  "0x2000 write",
			op:    func() { ppu.WritePort(0x2000, 0x00, nil) },
			prev:  prev{t: p16("........ ........"), v: p16("........ ........"), x: p8("........"), w: p8("........")},
			want:  want{t: p16("....00.. ........"), v: p16("........ ........"), x: p8("........"), w: p8("........")},
			tmask: 0x0C00,
		},
		{
			// tests are from https://wiki.nesdev.com/w/index.php?title=PPU_scrolling&redirect=no#Summary
			name:  "0x2002 read",
			op:    func() { ppu.ReadPort(0x2002) },
			prev:  prev{t: p16("....00.. ........"), v: p16("........ ........"), x: p8("........"), w: p8("........")},
			want:  want{t: p16("....00.. ........"), v: p16("........ ........"), x: p8("........"), w: p8(".......0")},
			tmask: 0x0C00,
		},
		{
			// tests are from https://wiki.nesdev.com/w/index.php?title=PPU_scrolling&redirect=no#Summary
			name:  "0x2005 write 1",
			op:    func() { ppu.WritePort(0x2005, 0x7D, nil) },
			prev:  prev{t: p16("....00.. ........"), v: p16("........ ........"), x: p8("........"), w: p8(".......0")},
			want:  want{t: p16("....00.. ...01111"), v: p16("........ ........"), x: p8(".....101"), w: p8(".......1")},
			tmask: 0x0C1F,
		},
		{
			// tests are from https://wiki.nesdev.com/w/index.php?title=PPU_scrolling&redirect=no#Summary
			name:  "0x2005 write 2",
			op:    func() { ppu.WritePort(0x2005, 0x5E, nil) },
			prev:  prev{t: p16("....00.. ...01111"), v: p16("........ ........"), x: p8(".....101"), w: p8(".......1")},
			want:  want{t: p16(".1100001 01101111"), v: p16("........ ........"), x: p8(".....101"), w: p8(".......0")},
			tmask: 0x7FFF,
		},
		{
			// tests are from https://wiki.nesdev.com/w/index.php?title=PPU_scrolling&redirect=no#Summary
			name:  "0x2006 write 1",
			op:    func() { ppu.WritePort(0x2006, 0x3D, nil) },
			prev:  prev{t: p16(".1100001 01101111"), v: p16("........ ........"), x: p8(".....101"), w: p8(".......0")},
			want:  want{t: p16(".0111101 01101111"), v: p16("........ ........"), x: p8(".....101"), w: p8(".......1")},
			tmask: 0x7FFF,
		},
		{
			// tests are from https://wiki.nesdev.com/w/index.php?title=PPU_scrolling&redirect=no#Summary
			name:  "0x2006 write 2",
			op:    func() { ppu.WritePort(0x2006, 0xF0, nil) },
			prev:  prev{t: p16(".0111101 01101111"), v: p16("........ ........"), x: p8(".....101"), w: p8(".......1")},
			want:  want{t: p16(".0111101 11110000"), v: p16(".0111101 11110000"), x: p8(".....101"), w: p8(".......0")},
			tmask: 0x7FFF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ppu.t&tt.tmask != tt.prev.t {
				t.Errorf("got prev t = %016b, want prev = %016b", ppu.t&tt.tmask, tt.prev.t)
			}
			if ppu.v != tt.prev.v {
				t.Errorf("got prev v = %016b, want prev = %016b", ppu.v, tt.prev.v)
			}
			if ppu.x != tt.prev.x {
				t.Errorf("got prev x = %016b, want prev = %016b", ppu.x, tt.prev.x)
			}
			if ppu.w != tt.prev.w {
				t.Errorf("got prev w = %016b, want prev = %016b", ppu.w, tt.prev.w)
			}

			tt.op()

			if ppu.t&tt.tmask != tt.want.t {
				t.Errorf("got t = %016b, want = %016b", ppu.t&tt.tmask, tt.want.t)
			}
			if ppu.v != tt.want.v {
				t.Errorf("got v = %016b, want = %016b", ppu.v, tt.want.v)
			}
			if ppu.x != tt.want.x {
				t.Errorf("got x = %016b, want = %016b", ppu.x, tt.want.x)
			}
			if ppu.w != tt.want.w {
				t.Errorf("got w = %016b, want = %016b", ppu.w, tt.want.w)
			}
		})
	}
}

func newTestPPU() *PPU {
	cart := &Cartridge{chr: make([]byte, 0x2000), mirroring: MirrorHorizontal}
	return NewPPU(NewPPUBus(cart))
}

func TestPPUStatusReadClearsVBlank(t *testing.T) {
	ppu := newTestPPU()
	ppu.Status |= VerticalBlank

	if got := ppu.ReadPort(0x2002); got&0x80 == 0 {
		t.Fatal("first STATUS read should report vblank")
	}
	if got := ppu.ReadPort(0x2002); got&0x80 != 0 {
		t.Fatal("STATUS read should have consumed the vblank bit")
	}
}

func TestPPUStatusReadResetsAddressLatch(t *testing.T) {
	ppu := newTestPPU()

	ppu.WritePort(0x2006, 0x3D, nil) // leave the latch half-written
	ppu.ReadPort(0x2002)

	ppu.WritePort(0x2006, 0x21, nil)
	ppu.WritePort(0x2006, 0x08, nil)

	if ppu.v != 0x2108 {
		t.Fatalf("v = %#04x, want %#04x (first write after a STATUS read must be the high byte)", ppu.v, 0x2108)
	}
}

func TestPPUDataBufferedRead(t *testing.T) {
	ppu := newTestPPU()
	ppu.Bus.Write(0x2000, 0x66)

	ppu.WritePort(0x2006, 0x20, nil)
	ppu.WritePort(0x2006, 0x00, nil)

	if got := ppu.ReadPort(0x2007); got != 0 {
		t.Fatalf("first DATA read = %#02x, want the stale buffer (0)", got)
	}
	if got := ppu.ReadPort(0x2007); got != 0x66 {
		t.Fatalf("second DATA read = %#02x, want %#02x", got, 0x66)
	}
}

func TestPPUDataPaletteReadSkipsBuffer(t *testing.T) {
	ppu := newTestPPU()
	ppu.Bus.Write(0x3F01, 0x34)

	ppu.WritePort(0x2006, 0x3F, nil)
	ppu.WritePort(0x2006, 0x01, nil)

	if got := ppu.ReadPort(0x2007); got != 0x34 {
		t.Fatalf("palette DATA read = %#02x, want %#02x (no buffering)", got, 0x34)
	}
}

func TestPPUDataAddressIncrement(t *testing.T) {
	ppu := newTestPPU()

	ppu.WritePort(0x2006, 0x20, nil)
	ppu.WritePort(0x2006, 0x00, nil)
	ppu.WritePort(0x2007, 0x11, nil)
	ppu.WritePort(0x2007, 0x22, nil)

	if got := ppu.Bus.Read(0x2000); got != 0x11 {
		t.Fatalf("vram[0x2000] = %#02x, want %#02x", got, 0x11)
	}
	if got := ppu.Bus.Read(0x2001); got != 0x22 {
		t.Fatalf("vram[0x2001] = %#02x, want %#02x (increment-by-1 mode)", got, 0x22)
	}

	ppu.WritePort(0x2000, byte(AddressIncrement), nil)
	ppu.WritePort(0x2006, 0x20, nil)
	ppu.WritePort(0x2006, 0x00, nil)
	ppu.WritePort(0x2007, 0x33, nil)
	ppu.WritePort(0x2007, 0x44, nil)

	if got := ppu.Bus.Read(0x2020); got != 0x44 {
		t.Fatalf("vram[0x2020] = %#02x, want %#02x (increment-by-32 mode)", got, 0x44)
	}
}

func TestPPUBusPaletteMirrors(t *testing.T) {
	bus := NewPPUBus(&Cartridge{chr: make([]byte, 0x2000)})

	pairs := [][2]uint16{
		{0x3F10, 0x3F00},
		{0x3F14, 0x3F04},
		{0x3F18, 0x3F08},
		{0x3F1C, 0x3F0C},
	}
	for _, p := range pairs {
		mirror, canonical := p[0], p[1]

		bus.Write(mirror, 0x2A)
		if got := bus.Read(canonical); got != 0x2A {
			t.Errorf("write %#04x read %#04x = %#02x, want %#02x", mirror, canonical, got, 0x2A)
		}

		bus.Write(canonical, 0x15)
		if got := bus.Read(mirror); got != 0x15 {
			t.Errorf("write %#04x read %#04x = %#02x, want %#02x", canonical, mirror, got, 0x15)
		}
	}

	// $3F20-$3FFF repeats the 32-byte palette.
	bus.Write(0x3F21, 0x07)
	if got := bus.Read(0x3F01); got != 0x07 {
		t.Errorf("read($3F01) = %#02x, want %#02x via $3F21 mirror", got, 0x07)
	}
}

func TestPPUBusNametableMirroring(t *testing.T) {
	writeData := func(b *PPUBus, addr uint16, val byte) {
		for i := uint16(0); i < 960; i++ {
			b.Write(addr+i, val)
		}
	}

	t.Run("horizontal", func(t *testing.T) {
		bus := &PPUBus{Cartridge: &Cartridge{mirroring: MirrorHorizontal}}

		// Horizontal
		// 2000 A
		// 2400 A
		// 2800 B
		// 2C00 B
		writeData(bus, 0x2000, 1)
		writeData(bus, 0x2800, 2)

		if !bytes.Equal(bus.nametable0[:960], bytes.Repeat([]byte{1}, 960)) {
			t.Fatalf("expected bank 0 to have been set, got %v", bus.nametable0[:960])
		}
		if !bytes.Equal(bus.nametable1[:960], bytes.Repeat([]byte{2}, 960)) {
			t.Fatalf("expected bank 1 to have been set, got %v", bus.nametable1[:960])
		}

		if got := bus.Read(0x2000); got != 1 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2000, 1, got)
		}
		if got := bus.Read(0x2400); got != 1 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2400, 1, got)
		}
		if got := bus.Read(0x2800); got != 2 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2800, 2, got)
		}
		if got := bus.Read(0x2C00); got != 2 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2C00, 2, got)
		}
	})

	t.Run("vertical", func(t *testing.T) {
		bus := &PPUBus{Cartridge: &Cartridge{mirroring: MirrorVertical}}

		// Vertical
		// 2000 A
		// 2400 B
		// 2800 A
		// 2C00 B
		writeData(bus, 0x2000, 1)
		writeData(bus, 0x2400, 2)

		if !bytes.Equal(bus.nametable0[:960], bytes.Repeat([]byte{1}, 960)) {
			t.Fatalf("expected bank 0 to have been set, got %v", bus.nametable0[:960])
		}
		if !bytes.Equal(bus.nametable1[:960], bytes.Repeat([]byte{2}, 960)) {
			t.Fatalf("expected bank 1 to have been set, got %v", bus.nametable1[:960])
		}

		if got := bus.Read(0x2000); got != 1 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2000, 1, got)
		}
		if got := bus.Read(0x2400); got != 2 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2400, 2, got)
		}
		if got := bus.Read(0x2800); got != 1 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2800, 1, got)
		}
		if got := bus.Read(0x2C00); got != 2 {
			t.Fatalf("read from 0x%X, want %v, got %v", 0x2C00, 2, got)
		}
	})
}

func TestPPUBusForbiddenRegionPanics(t *testing.T) {
	bus := &PPUBus{Cartridge: &Cartridge{mirroring: MirrorHorizontal}}

	defer func() {
		if recover() == nil {
			t.Fatal("expected Read(0x3000) to panic")
		}
	}()
	bus.Read(0x3000)
}
