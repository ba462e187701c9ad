package tracks

import "fmt"

// MarshalText encodes the box state by name.
func (d Damage) MarshalText() ([]byte, error) {
	if d < Undamaged || d > Aggravated {
		return nil, fmt.Errorf("invalid damage %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a box state name.
func (d *Damage) UnmarshalText(text []byte) error {
	switch string(text) {
	case "undamaged", "":
		*d = Undamaged
	case "superficial":
		*d = Superficial
	case "aggravated":
		*d = Aggravated
	default:
		return fmt.Errorf("unknown damage %q", text)
	}
	return nil
}

// MarshalText encodes the humanity mark by name.
func (m Mark) MarshalText() ([]byte, error) {
	if m < Empty || m > Stained {
		return nil, fmt.Errorf("invalid mark %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a humanity mark name.
func (m *Mark) UnmarshalText(text []byte) error {
	switch string(text) {
	case "empty", "":
		*m = Empty
	case "filled":
		*m = Filled
	case "stained":
		*m = Stained
	default:
		return fmt.Errorf("unknown mark %q", text)
	}
	return nil
}
