package nes

// PPUBus is the PPU's 14-bit address space: the cartridge's pattern table,
// the two physical 1KB nametable banks (mirrored up to the four logical
// nametable slots), and the 32-byte palette RAM. It is a distinct address
// space from the CPU bus; the only thing that crosses between them is the
// PPU's register file, which the CPU bus reaches through PPU.ReadPort and
// PPU.WritePort.
type PPUBus struct {
	Cartridge *Cartridge

	nametable0 [1024]byte
	nametable1 [1024]byte
	palette    [32]byte
}

// NewPPUBus wires a PPU bus to a loaded cartridge.
func NewPPUBus(cartridge *Cartridge) *PPUBus {
	return &PPUBus{Cartridge: cartridge}
}

// Read decodes a PPU-bus address. Addresses are always taken mod $4000;
// callers never drive the bus with a 16-bit CPU address.
func (b *PPUBus) Read(address uint16) byte {
	address %= 0x4000
	switch {
	case address < 0x2000:
		return b.Cartridge.CHRRead(address)
	case address < 0x3000:
		return b.readNametable(address)
	case address < 0x3F00:
		panic(&PPUError{Address: address, Reason: "read of unreachable nametable mirror region"})
	case address < 0x4000:
		return b.readPalette(address)
	default:
		panic(&PPUError{Address: address, Reason: "read past end of PPU address space"})
	}
}

// Write decodes a PPU-bus address for writes. CHR-ROM is read-only.
func (b *PPUBus) Write(address uint16, value byte) {
	address %= 0x4000
	switch {
	case address < 0x2000:
		// CHR-ROM, writes are no-ops.
	case address < 0x3000:
		b.writeNametable(address, value)
	case address < 0x3F00:
		panic(&PPUError{Address: address, Reason: "write to unreachable nametable mirror region"})
	case address < 0x4000:
		b.writePalette(address, value)
	default:
		panic(&PPUError{Address: address, Reason: "write past end of PPU address space"})
	}
}

func (b *PPUBus) readPalette(address uint16) byte {
	switch address {
	case 0x3F10, 0x3F14, 0x3F18, 0x3F1C:
		address -= 0x10
	}
	return b.palette[address%32]
}

func (b *PPUBus) writePalette(address uint16, value byte) {
	switch address {
	case 0x3F10, 0x3F14, 0x3F18, 0x3F1C:
		address -= 0x10
	}
	b.palette[address%32] = value
}

// readNametable folds the logical $2000-$2FFF range onto the two physical
// 1KB nametable banks according to the cartridge's mirroring mode.
func (b *PPUBus) readNametable(addr uint16) byte {
	if b.usesBank0(addr) {
		return b.nametable0[addr%1024]
	}
	return b.nametable1[addr%1024]
}

func (b *PPUBus) writeNametable(addr uint16, val byte) {
	if b.usesBank0(addr) {
		b.nametable0[addr%1024] = val
	} else {
		b.nametable1[addr%1024] = val
	}
}

// usesBank0 reports which of the two physical nametable banks a logical
// nametable index (0..3, derived from addr) maps to.
func (b *PPUBus) usesBank0(addr uint16) bool {
	nametable := (addr - 0x2000) / 1024 // 0..3
	switch b.Cartridge.Mirroring() {
	case MirrorVertical:
		return nametable == 0 || nametable == 2
	default: // MirrorHorizontal; four-screen boards are unsupported.
		return nametable == 0 || nametable == 1
	}
}
