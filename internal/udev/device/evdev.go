package device

import "github.com/smazurov/udevzero/internal/udev/prop"

// Linux input-event-codes.h constants relevant to input-class derivation.
// Only the handful this classifier touches are named.
const (
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
	evSw  = 0x05

	relX = 0x00
	relY = 0x01

	absX = 0x00
	absY = 0x01
	absZ = 0x02

	keyEsc   = 0x01
	keyEnter = 0x1c

	btnMisc  = 0x100
	btnMouse = 0x110

	btnTL     = 0x136
	btnTR     = 0x137
	btnSelect = 0x13a
	btnStart  = 0x13b

	btnToolPen    = 0x140
	btnToolFinger = 0x145
	btnTouch      = 0x14a
	btnStylus     = 0x14b

	inputPropPointingStick = 0x05
	inputPropAccelerometer = 0x06
)

// deriveEvdevProperties implements the ID_INPUT* classification tree. It is
// a no-op unless SUBSYSTEM is "input" and an ancestor exposes a non-empty
// EV property. Capability bits arrive as properties (EV/ABS/REL/KEY/PROP),
// not sysattrs: the kernel's uevent for an input device already carries
// them, and the original library reads them the same way.
func deriveEvdevProperties(d *Device) {
	if d.Subsystem() != "input" {
		return
	}

	ev, found := findEvdevAncestor(d)
	if !found {
		return
	}

	abs := parseBitmask(ev.Get("ABS"))
	rel := parseBitmask(ev.Get("REL"))
	key := parseBitmask(ev.Get("KEY"))
	props := parseBitmask(ev.Get("PROP"))
	evMask := parseBitmask(ev.Get("EV"))

	set := func(name string) {
		d.props.Insert(name, "1", prop.AppendIfAbsent)
		d.props.Insert("ID_INPUT", "1", prop.AppendIfAbsent)
	}

	if props.Test(inputPropPointingStick) {
		set("ID_INPUT_POINTINGSTICK")
	}
	if props.Test(inputPropAccelerometer) {
		set("ID_INPUT_ACCELEROMETER")
	}
	if evMask.Test(evSw) {
		set("ID_INPUT_SWITCH")
	}

	switch {
	case evMask.Test(evRel):
		if rel.Test(relX) && rel.Test(relY) && key.Test(btnMouse) {
			set("ID_INPUT_MOUSE")
		}
	case evMask.Test(evAbs):
		hasXY := abs.Test(absX) && abs.Test(absY)
		gameButtons := key.Any(btnSelect, btnTR, btnStart, btnTL)

		switch {
		case gameButtons && key.Test(btnTouch):
			set("ID_INPUT_TOUCHSCREEN")
		case gameButtons:
			set("ID_INPUT_JOYSTICK")
		case abs.Test(absX) && abs.Test(absY) && abs.Test(absZ) && !evMask.Test(evKey):
			set("ID_INPUT_ACCELEROMETER")
		case hasXY && (key.Test(btnStylus) || key.Test(btnToolPen)):
			set("ID_INPUT_TABLET")
		case hasXY && key.Test(btnTouch) && key.Test(btnToolFinger):
			set("ID_INPUT_TOUCHPAD")
		case hasXY && key.Test(btnTouch):
			set("ID_INPUT_TOUCHSCREEN")
		case hasXY && key.Test(btnMouse):
			set("ID_INPUT_MOUSE")
		}
	}

	if evMask.Test(evKey) && anyKeyInRange(key, keyEsc, btnMisc) {
		set("ID_INPUT_KEY")
		if key.Test(keyEnter) {
			set("ID_INPUT_KEYBOARD")
		}
	}
}

func anyKeyInRange(b bitmask, lo, hi int) bool {
	for bit := lo; bit < hi; bit++ {
		if b.Test(bit) {
			return true
		}
	}
	return false
}

// findEvdevAncestor walks the device itself and then its parent chain for
// the nearest node exposing a non-empty EV property.
func findEvdevAncestor(d *Device) (*Device, bool) {
	if d.Get("EV") != "" {
		return d, true
	}
	cur := d
	for {
		p, err := cur.Parent()
		if err != nil || p == nil {
			return nil, false
		}
		if p.Get("EV") != "" {
			return p, true
		}
		cur = p
	}
}
