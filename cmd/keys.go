package main

import "bufio"

type key int

const (
	keyNone key = iota
	keyUp
	keyDown
	keyLeft
	keyRight
	keyEnter
	keyMark
	keyQuit
)

// readKey decodes one keypress from a raw-mode terminal. Windows consoles
// send arrows as 0 or 224 followed by a scan code, ANSI terminals as ESC [ X.
func readKey(r *bufio.Reader) (key, error) {
	b1, err := r.ReadByte()
	if err != nil {
		return keyNone, err
	}

	if b1 == 0 || b1 == 224 {
		b2, _ := r.ReadByte()
		switch b2 {
		case 72:
			return keyUp, nil
		case 80:
			return keyDown, nil
		case 75:
			return keyLeft, nil
		case 77:
			return keyRight, nil
		case 13:
			return keyEnter, nil
		}
		return keyNone, nil
	}

	switch b1 {
	case 27: // ESC or ANSI sequence
		if r.Buffered() == 0 {
			return keyQuit, nil
		}
		b2, _ := r.ReadByte()
		if b2 != '[' || r.Buffered() == 0 {
			return keyNone, nil
		}
		b3, _ := r.ReadByte()
		switch b3 {
		case 'A':
			return keyUp, nil
		case 'B':
			return keyDown, nil
		case 'C':
			return keyRight, nil
		case 'D':
			return keyLeft, nil
		}
	case '\r', '\n':
		return keyEnter, nil
	case 'm', 'M':
		return keyMark, nil
	case 'q', 3: // Ctrl-C
		return keyQuit, nil
	}
	return keyNone, nil
}
