package carousel

import "strings"

// KeyKind classifies a decoded keypress.
type KeyKind int

const (
	KeyOther KeyKind = iota
	KeyTogglePicker
	KeyEscape
	KeySpace
	KeyLeft
	KeyRight
	KeyQuit
	KeyRune // any other printable key; Rune holds it
)

type Key struct {
	Kind KeyKind
	Rune rune
}

// PickerLabels are the keys that select a player in the picker grid, in
// cycle order. p and q are taken by toggle and quit.
const PickerLabels = "123456789abcdefghijklmnorstuvwxyz"

// PickerLabel returns the selection key for cycle position i.
func PickerLabel(i int) (rune, bool) {
	if i < 0 || i >= len(PickerLabels) {
		return 0, false
	}
	return rune(PickerLabels[i]), true
}

// Route maps a key to at most one command. While the picker is open only
// toggle, close and player selection get through.
func Route(s State, k Key) (Command, bool) {
	if s.PickerOpen {
		switch k.Kind {
		case KeyTogglePicker:
			return TogglePicker(), true
		case KeyEscape:
			return ClosePicker(), true
		case KeyRune:
			i := strings.IndexRune(PickerLabels, k.Rune)
			if id, ok := s.Cycle.At(i); ok {
				return FocusPlayer(id), true
			}
		}
		return Command{}, false
	}

	switch k.Kind {
	case KeyTogglePicker:
		return TogglePicker(), true
	case KeySpace:
		return TogglePause(), true
	case KeyLeft:
		return Advance(-1), true
	case KeyRight:
		return Advance(1), true
	}
	return Command{}, false
}
