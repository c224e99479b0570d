package nes

import (
	"bufio"
	"bytes"
	"os"
	"testing"
)

// TestConsole_nestest replays the nestest golden CPU trace. It is skipped
// when the nestest fixtures aren't present locally; nestest.nes is a
// reverse-engineered test ROM distributed separately from the rest of the
// corpus and ordinarily fetched on demand.
func TestConsole_nestest(t *testing.T) {
	testRom, err := os.Open("../roms/cpu/nestest/nestest.nes")
	if err != nil {
		t.Skip("nestest.nes fixture not present")
	}
	defer testRom.Close()

	log, err := os.Open("../roms/cpu/nestest/nestest.log.txt")
	if err != nil {
		t.Skip("nestest.log.txt fixture not present")
	}
	defer log.Close()

	cartridge, err := LoadINES(testRom)
	if err != nil {
		t.Fatalf("unable to load rom: %v", err)
	}

	buf := bytes.NewBuffer(nil)

	console := NewConsole(cartridge, buf)
	console.SetPC(0xC000)

	// The golden log is compared up to (not including) the " PPU" suffix;
	// the dot/cycle columns past it depend on boot timing the trace format
	// does not pin down.
	trim := func(b []byte) []byte {
		if i := bytes.Index(b, []byte(" PPU")); i >= 0 {
			return b[:i]
		}
		return bytes.TrimSuffix(b, []byte("\n"))
	}

	scanner := bufio.NewScanner(log)

	for scanner.Scan() {
		want := append([]byte(nil), scanner.Bytes()...)

		console.Step()

		t1, t2 := console.Read(0x02), console.Read(0x03)
		if t1 != 0 || t2 != 0 {
			t.Fatalf("nestest: official test failure code %02x%02x", t1, t2)
		}

		if got := buf.Bytes(); !bytes.Equal(trim(got), trim(want)) {
			t.Fatalf("nestest: want %q, got %q", trim(want), trim(got))
		}

		buf.Reset()
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("unable to read log: %v", err)
	}
}

// TestConsole_loadAndReset exercises the load/reset path against a
// minimal synthetic NROM image instead of a real commercial or homebrew
// ROM, so it needs no external fixture.
func TestConsole_loadAndReset(t *testing.T) {
	rom := syntheticNROM(0xC0)

	console, err := LoadConsole(bytes.NewReader(rom), nil)
	if err != nil {
		t.Fatalf("LoadConsole: %v", err)
	}

	console.Reset()

	if got := console.CPU.pc; got != 0x8000 {
		t.Fatalf("after reset, PC = %#04x, want %#04x", got, 0x8000)
	}
	if got := console.CPU.s; got != 0xFD {
		t.Fatalf("after reset, SP = %#02x, want %#02x", got, 0xFD)
	}
	if got := console.CPU.a; got != 0 {
		t.Fatalf("after reset, A = %#02x, want 0", got)
	}
	if got := console.CPU.x; got != 0 {
		t.Fatalf("after reset, X = %#02x, want 0", got)
	}
	if got := console.CPU.y; got != 0 {
		t.Fatalf("after reset, Y = %#02x, want 0", got)
	}
	if got := byte(console.CPU.p); got != 0x24 {
		t.Fatalf("after reset, P = %#02x, want %#02x", got, 0x24)
	}
}

// TestConsole_runProgram boots a synthetic cartridge whose reset vector
// points at a short program at $8600 and runs it to the BRK halt:
//
//	LDA #$FF ; TAX ; INX ; INX ; BRK
func TestConsole_runProgram(t *testing.T) {
	rom := syntheticNROM(0x00)
	program := []byte{0xA9, 0xFF, 0xAA, 0xE8, 0xE8, 0x00}
	copy(rom[16+0x0600:], program)
	rom[16+0x3FFC] = 0x00 // reset vector = $8600
	rom[16+0x3FFD] = 0x86

	console, err := LoadConsole(bytes.NewReader(rom), nil)
	if err != nil {
		t.Fatalf("LoadConsole: %v", err)
	}
	console.Reset()

	var boundaries int
	err = console.Run(func(CPUView) bool {
		boundaries++
		return true
	}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := console.CPU.x; got != 0x01 {
		t.Errorf("X = %#02x, want %#02x", got, 0x01)
	}
	if console.CPU.p&zero != 0 {
		t.Error("zero flag should be clear after INX past zero")
	}
	if console.CPU.p&negative != 0 {
		t.Error("negative flag should be clear after INX past zero")
	}
	if !console.CPU.Halted() {
		t.Error("CPU should be halted at BRK")
	}
	if boundaries == 0 {
		t.Error("cpu callback should have observed instruction boundaries")
	}
}

// TestConsole_runSurfacesJamOpcodes drives execution straight into a jam
// opcode and expects Run to return the decode failure instead of spinning.
func TestConsole_runSurfacesJamOpcodes(t *testing.T) {
	rom := syntheticNROM(0x00)
	rom[16] = 0x02 // KIL

	console, err := LoadConsole(bytes.NewReader(rom), nil)
	if err != nil {
		t.Fatalf("LoadConsole: %v", err)
	}
	console.Reset()

	err = console.Run(nil, nil)
	cpuErr, ok := err.(*CPUError)
	if !ok {
		t.Fatalf("Run() error = %v, want *CPUError", err)
	}
	if cpuErr.OpCode != 0x02 {
		t.Errorf("OpCode = %#02x, want %#02x", cpuErr.OpCode, 0x02)
	}
	if cpuErr.PC != 0x8000 {
		t.Errorf("PC = %#04x, want %#04x", cpuErr.PC, 0x8000)
	}
}

// TestConsole_frameCallback checks that the frame callback fires exactly
// once per NMI raise and can stop the run.
func TestConsole_frameCallback(t *testing.T) {
	rom := syntheticNROM(0x00)
	// $8000: LDA #$80 ; STA $2000 (enable the vblank NMI) ; JMP $8005.
	copy(rom[16:], []byte{0xA9, 0x80, 0x8D, 0x00, 0x20, 0x4C, 0x05, 0x80})
	rom[16+0x0600] = 0x40 // NMI handler at $8600: RTI
	rom[16+0x3FFA] = 0x00
	rom[16+0x3FFB] = 0x86

	console, err := LoadConsole(bytes.NewReader(rom), nil)
	if err != nil {
		t.Fatalf("LoadConsole: %v", err)
	}
	console.Reset()

	var frames int
	err = console.Run(nil, func(view FrameView, j1, j2 *Controller) bool {
		if view.Buffer == nil {
			t.Error("frame callback should receive the framebuffer")
		}
		if j1 == nil || j2 == nil {
			t.Error("frame callback should receive both joypads")
		}
		frames++
		return frames < 3
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frames != 3 {
		t.Fatalf("frame callback fired %d times, want 3", frames)
	}
}

// TestConsole_noFramesWhileNMIDisabled pins down the delivery condition:
// vblank alone is not enough, the frame callback rides the NMI edge, so a
// program that never sets CTRL's NMI-enable bit sees no frames.
func TestConsole_noFramesWhileNMIDisabled(t *testing.T) {
	rom := syntheticNROM(0x00)
	copy(rom[16:], []byte{0x4C, 0x00, 0x80}) // JMP $8000

	console, err := LoadConsole(bytes.NewReader(rom), nil)
	if err != nil {
		t.Fatalf("LoadConsole: %v", err)
	}
	console.Reset()

	// ~60000 JMPs is 180k CPU cycles, comfortably past several vblanks.
	var frames, boundaries int
	err = console.Run(func(CPUView) bool {
		boundaries++
		return boundaries < 60000
	}, func(FrameView, *Controller, *Controller) bool {
		frames++
		return true
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if frames != 0 {
		t.Fatalf("frame callback fired %d times with NMI disabled, want 0", frames)
	}
}

// syntheticNROM builds a minimal 16KB-PRG/8KB-CHR mapper-0 image whose
// reset vector ($FFFC/$FFFD) points at $8000 and whose first instruction
// is LDA #fill.
func syntheticNROM(fill byte) []byte {
	header := []byte{'N', 'E', 'S', 0x1A, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	prg := make([]byte, 16*1024)
	prg[0] = 0xA9  // LDA #imm
	prg[1] = fill  // operand
	prg[0x3FFC] = 0x00
	prg[0x3FFD] = 0x80
	chr := make([]byte, 8*1024)

	out := make([]byte, 0, len(header)+len(prg)+len(chr))
	out = append(out, header...)
	out = append(out, prg...)
	out = append(out, chr...)
	return out
}
