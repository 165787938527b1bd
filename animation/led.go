package animation

import "fmt"

// Led is the color of a single RGB LED, one byte per component.
type Led struct {
	Red   byte
	Green byte
	Blue  byte
}

// True if all components are zero, false otherwise
func (s Led) IsEmpty() bool {
	return s.Red == 0 && s.Green == 0 && s.Blue == 0
}

func (s Led) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", s.Red, s.Green, s.Blue)
}

// Local Variables:
// compile-command: "cd .. && go build"
// End:
