package nes

// Button identifies one of the eight pads on a standard controller, in the
// order the shift register reports them.
type Button byte

const (
	A Button = iota
	B
	Select
	Start
	Up
	Down
	Left
	Right
)

// Controller models the standard joypad's parallel-in/serial-out shift
// register. While the strobe bit is high the register continuously reloads,
// so reads keep returning the live state of A; on the strobe's high-to-low
// transition the button bitmap is latched into the shift register, and each
// subsequent read shifts out the next latched bit in order. Button changes
// after the latch are not visible until the next strobe. Reads past the
// eighth return 1, as the real shift register feeds in high bits once
// drained.
type Controller struct {
	buttons [8]Button
	latched [8]Button
	head    byte
	strobe  byte
}

// Read shifts the next button bit out of the register.
func (c *Controller) Read() Button {
	if c.strobe&1 == 1 {
		return c.buttons[A]
	}

	var value Button = 1
	if c.head < 8 {
		value = c.latched[c.head]
	}
	c.head++
	return value
}

// Write drives the strobe line ($4016 bit 0), latching the buttons when it
// drops.
func (c *Controller) Write(value byte) {
	if c.strobe&1 == 1 && value&1 == 0 {
		c.latched = c.buttons
		c.head = 0
	}
	c.strobe = value
}

// Press updates the live button bitmap; the next latch picks it up.
func (c *Controller) Press(button Button) {
	c.buttons[button] = 1
}

// Release clears a button in the live bitmap.
func (c *Controller) Release(button Button) {
	c.buttons[button] = 0
}
